package model

import (
	"time"
)

// DocumentKind classifies a normalized taxpayer document by digit length.
type DocumentKind int

// Document kinds.
const (
	DocumentUnknown DocumentKind = iota
	DocumentCPF
	DocumentCNPJ
)

func (k DocumentKind) String() string {
	switch k {
	case DocumentCPF:
		return "CPF"
	case DocumentCNPJ:
		return "CNPJ"
	default:
		return "unknown"
	}
}

// Invoice is the canonical, dialect-independent representation of one NFS-e
// document. Every invoice is traceable to exactly one source document via
// SourceFile; no invoice is assembled from more than one document.
type Invoice struct {
	IssueDate        *time.Time
	GrossAmount      *float64
	NetAmount        *float64
	TaxAmount        *float64
	ServiceCode      string
	IssuerDocument   string // digits only, empty when unresolved
	PayerDocument    string // digits only, empty when unresolved
	IssuerName       string
	PayerName        string
	MunicipalityCode string
	SourceFile       string
}

// ClassifyDocument returns the kind of a digits-only taxpayer document.
func ClassifyDocument(digits string) DocumentKind {
	switch len(digits) {
	case 11:
		return DocumentCPF
	case 14:
		return DocumentCNPJ
	default:
		return DocumentUnknown
	}
}

// IssuerDocumentKind classifies the issuer document of this invoice.
func (i *Invoice) IssuerDocumentKind() DocumentKind {
	return ClassifyDocument(i.IssuerDocument)
}

// PayerDocumentKind classifies the payer document of this invoice.
func (i *Invoice) PayerDocumentKind() DocumentKind {
	return ClassifyDocument(i.PayerDocument)
}

// HasRequiredFields reports whether the invoice carries an issue date and at
// least one party document. Records failing this check are still kept; they
// arrive flagged by warning diagnostics instead of being dropped.
func (i *Invoice) HasRequiredFields() bool {
	if i.IssueDate == nil {
		return false
	}
	return i.IssuerDocument != "" || i.PayerDocument != ""
}
