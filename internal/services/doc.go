// Package services implements the HTTP clients for the two remote Slack endpoints the migration touches.
//
// # Directory
//
// [DirectoryClient] calls emoji.list on the source workspace with a bearer token.
// Authentication is delegated to [oauth2.StaticTokenSource], so every request carries
// "Authorization: Bearer <token>" without the client touching headers itself.
// The listing is a single unpaginated call; alias entries are dropped before the catalog is returned.
//
// # Upload
//
// [UploadClient] calls emoji.add on the destination workspace using the browser session:
// the Cookie header plus an xoxc- token sent as a multipart field.
// Each call to [UploadClient.AddEmoji] is exactly one attempt on a brand new connection and
// re-opens the image file; retry policy lives in the tasks package.
//
// # Error Handling
//
// Remote failures are reported as [*APIError] wrapped in a shared sentinel:
//   - [shared.ErrAuth] : emoji.list rejected the token
//   - [shared.ErrRemote] : emoji.list returned a non-OK status or another API error
//   - [shared.ErrPublishTransient] : emoji.add could not be reached
//   - [shared.ErrPublishFatal] : the image file could not be read
//
// An emoji.add response is returned as an [UploadResult] rather than an error so the
// caller can tell rate limiting, transport failures and rejections apart.
package services
