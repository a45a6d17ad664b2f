// Package adminapi serves threads and posts as a JSON admin API on gin.
//
// Routes:
//
//	GET    /api/threads            list, query parameters become lookups
//	GET    /api/threads/:id        detail
//	PATCH  /api/threads/:id        partial update, one remote mutation per field
//	DELETE /api/threads/:id        removes the thread's posts, then the thread
//	GET    /api/posts              list (thread=, thread__in=1,2, exclude_id=)
//	GET    /api/posts/:id          detail
//	PATCH  /api/posts/:id          partial update
//	DELETE /api/posts/:id          remove
//	POST   /api/posts/bulk-delete  remove {"ids": [...]} in one call
//	GET    /api/meta/:entity       field metadata, ?field= for a single field
//
// Errors answer with {"error": {...}}: 404 missing record, 409 several
// records, 422 unsupported lookup or mutation, 502 remote rejection or
// transport failure, 504 timeout.
package adminapi
