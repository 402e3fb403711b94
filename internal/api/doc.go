// Package api hosts the public HTTP server. Routes:
//   - POST /store-email subscribes an address and mails a welcome question
//     from the requested platform.
//
// Prometheus metrics are served on a separate listener owned by the app package.
package api
