package bilibili

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testImgKey = "7cd084941338484aae1ad9425b84077c"
	testSubKey = "4932caff0ff746eab6f01bf08b70ac45"
)

func TestMixinKeyLength(t *testing.T) {
	key := mixinKey(testImgKey + testSubKey)
	assert.Len(t, key, 32)
	assert.Equal(t, key, mixinKey(testImgKey+testSubKey))
}

func TestSignParamsKnownVector(t *testing.T) {
	params := url.Values{}
	params.Set("foo", "114")
	params.Set("bar", "514")
	params.Set("zab", "1919810")

	signed := signParams(params, testImgKey, testSubKey, 1702204169)

	assert.Equal(t, "1702204169", signed.Get("wts"))
	assert.Equal(t, "8f6f2b5b3d485fe1886cec6a0be8c5d4", signed.Get("w_rid"))
}

func TestSignParamsDeterministic(t *testing.T) {
	a := url.Values{"keyword": {"golang"}, "page": {"1"}}
	b := url.Values{"page": {"1"}, "keyword": {"golang"}}

	sa := signParams(a, testImgKey, testSubKey, 1700000000)
	sb := signParams(b, testImgKey, testSubKey, 1700000000)
	assert.Equal(t, sa.Get("w_rid"), sb.Get("w_rid"))
}

func TestSignParamsChangesWithTime(t *testing.T) {
	a := url.Values{"keyword": {"golang"}}
	b := url.Values{"keyword": {"golang"}}

	sa := signParams(a, testImgKey, testSubKey, 1700000000)
	sb := signParams(b, testImgKey, testSubKey, 1700000001)
	assert.NotEqual(t, sa.Get("w_rid"), sb.Get("w_rid"))
}

func TestKeyFromURL(t *testing.T) {
	key := keyFromURL("https://i0.hdslb.com/bfs/wbi/7cd084941338484aae1ad9425b84077c.png")
	require.Equal(t, testImgKey, key)
	assert.Equal(t, "", keyFromURL(""))
}
