package bilibili

import (
	"crypto/md5"
	"encoding/hex"
	"net/url"
	"strconv"
)

// mixinKeyEncTab is the fixed permutation applied to img_key+sub_key to
// derive the mixin key. It must match the live API byte-for-byte.
var mixinKeyEncTab = [64]int{
	46, 47, 18, 2, 53, 8, 23, 32, 15, 50, 10, 31, 58, 3, 45, 35,
	27, 43, 5, 49, 33, 9, 42, 19, 29, 28, 14, 39, 12, 38, 41, 13,
	37, 48, 7, 16, 24, 55, 40, 61, 26, 17, 0, 1, 60, 51, 30, 4,
	22, 25, 54, 21, 56, 59, 6, 63, 57, 62, 11, 36, 20, 34, 44, 52,
}

// mixinKey permutes the concatenated key fragments and keeps the first 32
// characters.
func mixinKey(origKey string) string {
	mixed := make([]byte, 0, len(mixinKeyEncTab))
	for _, idx := range mixinKeyEncTab {
		if idx < len(origKey) {
			mixed = append(mixed, origKey[idx])
		}
	}
	if len(mixed) > 32 {
		mixed = mixed[:32]
	}
	return string(mixed)
}

// signParams adds wts and the w_rid signature to params: keys are sorted
// lexicographically, URL-encoded as a query string, concatenated with the
// mixin key, and MD5-hexed. params is mutated and returned for chaining.
func signParams(params url.Values, imgKey, subKey string, wts int64) url.Values {
	params.Set("wts", strconv.FormatInt(wts, 10))
	query := params.Encode() // url.Values.Encode sorts by key
	digest := md5.Sum([]byte(query + mixinKey(imgKey+subKey)))
	params.Set("w_rid", hex.EncodeToString(digest[:]))
	return params
}
