// Package drive implements the remote file store on Google Drive.
//
// The expected layout is one folder per vendor under a root invoices
// folder, with the vendor's source documents and its master.json record
// file side by side. All API calls go through a token-bucket rate limiter
// and Google API errors are mapped onto domain sentinels.
package drive
