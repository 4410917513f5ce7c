package domain

// Credential carries what the pipeline needs to act on a user's remote file
// store. The refresh token is exchanged for short-lived access tokens by the
// store adapter; it is never persisted by this service.
type Credential struct {
	RefreshToken string
}

// Valid reports whether the credential can be used at all.
func (c Credential) Valid() bool {
	return c.RefreshToken != ""
}

// VendorFolder is one vendor's folder in the remote file store.
type VendorFolder struct {
	ID   string
	Name string
}

// CandidateFile is one file proposed for processing, as listed by the remote
// file store or reconstructed from stored status metadata on retry.
type CandidateFile struct {
	ID             string
	Name           string
	MIMEType       string
	WebViewLink    string
	WebContentLink string
}

// VendorBatch is the unit of work for the extraction pipeline: all candidate
// files for one vendor of one user.
type VendorBatch struct {
	UserID          string
	VendorName      string
	VendorFolderID  string
	InvoiceFolderID string
	Files           []CandidateFile
}

// RecordFolderID returns the folder that holds the vendor's record file.
// The invoice subfolder wins over the vendor folder when both are known.
func (b VendorBatch) RecordFolderID() string {
	if b.InvoiceFolderID != "" {
		return b.InvoiceFolderID
	}
	return b.VendorFolderID
}
