package repository

const (
	upsertVideoQuery = `INSERT INTO videos (platform, platform_vid, title, author, duration, view_count, tags, keywords, description)
					VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
					ON CONFLICT (platform, platform_vid) DO UPDATE
					SET title = EXCLUDED.title,
					    author = EXCLUDED.author,
					    duration = EXCLUDED.duration,
					    view_count = EXCLUDED.view_count,
					    tags = EXCLUDED.tags,
					    keywords = EXCLUDED.keywords,
					    description = EXCLUDED.description,
					    updated_at = now()
					RETURNING *`
	getVideoByPlatformIDQuery = `SELECT video_id, platform, platform_vid, title, author, duration, view_count, tags, keywords, description,
					audio_path, search_keyword, search_rank, created_at, updated_at
					FROM videos WHERE platform = $1 AND platform_vid = $2`
	setVideoAudioPathQuery = `UPDATE videos SET audio_path = $1, updated_at = now() WHERE video_id = $2`
	setVideoSearchQuery    = `UPDATE videos SET search_keyword = $1, search_rank = $2, updated_at = now() WHERE video_id = $3`

	upsertSubtitleQuery = `INSERT INTO subtitles (video_id, platform, platform_vid, content, timed_content, source, language, model_name)
					VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
					ON CONFLICT (video_id) DO UPDATE
					SET content = EXCLUDED.content,
					    timed_content = EXCLUDED.timed_content,
					    source = EXCLUDED.source,
					    language = EXCLUDED.language,
					    model_name = EXCLUDED.model_name
					RETURNING *`
	getSubtitleByPlatformIDQuery = `SELECT subtitle_id, video_id, platform, platform_vid, content, timed_content, source, language, model_name, created_at
					FROM subtitles WHERE platform = $1 AND platform_vid = $2`

	getTotalVideosQuery = `SELECT COUNT(video_id) FROM videos`
	listVideosQuery     = `SELECT video_id, platform, platform_vid, title, author, duration, view_count, tags, keywords, description,
					audio_path, search_keyword, search_rank, created_at, updated_at
					FROM videos ORDER BY updated_at DESC OFFSET $1 LIMIT $2`
	getTotalVideosByQueryQuery = `SELECT COUNT(video_id) FROM videos WHERE title ILIKE '%' || $1 || '%' OR author ILIKE '%' || $1 || '%'`
	searchVideosQuery          = `SELECT video_id, platform, platform_vid, title, author, duration, view_count, tags, keywords, description,
					audio_path, search_keyword, search_rank, created_at, updated_at
					FROM videos WHERE title ILIKE '%' || $1 || '%' OR author ILIKE '%' || $1 || '%'
					ORDER BY updated_at DESC OFFSET $2 LIMIT $3`
	listStaleAudioQuery = `SELECT video_id, platform, platform_vid, title, author, duration, view_count, tags, keywords, description,
					audio_path, search_keyword, search_rank, created_at, updated_at
					FROM videos WHERE audio_path IS NOT NULL AND updated_at < $1`
)
