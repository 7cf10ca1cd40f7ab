// Package api provides the HTTP surface for transcript ingestion and
// grounded querying.
//
// Routes:
//
//	GET  /health                       liveness probe
//	POST /api/upload                   multipart transcript upload
//	GET  /api/status/:document_id      ingestion status polling
//	GET  /api/documents                metadata-filtered document listing
//	POST /api/query                    citation-grounded question answering
//
// Domain errors map onto HTTP statuses: validation failures are 400, unknown
// documents and empty filter results are 404, provider outages are 502.
package api
