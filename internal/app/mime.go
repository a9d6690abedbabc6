package app

import (
	"log"
	"mime"
)

// XLSXContentType is served with workbook downloads.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func init() {
	ensureMimeType(".xlsx", XLSXContentType)
}

func ensureMimeType(ext, typ string) {
	if mime.TypeByExtension(ext) != "" {
		return
	}
	if err := mime.AddExtensionType(ext, typ); err != nil {
		log.Printf("app: failed to register MIME type for %s: %v", ext, err)
	}
}
