// Package connectors holds the message sources that feed ingestion and the
// plumbing they share: translation of remote API failures into domain
// errors and client-side rate limiting.
//
// Sources:
//   - graph: Microsoft Graph (Outlook / Microsoft 365 mailboxes)
//   - gmail: Gmail API
//   - maildir: a local directory of .eml files
package connectors
