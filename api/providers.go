package api

import (
	"context"

	"seotools/domaininfo"
	"seotools/imaging"
	"seotools/plagiarism"
)

// PlagiarismChecker scores the originality of a text.
type PlagiarismChecker interface {
	Check(ctx context.Context, text string) (*plagiarism.Report, error)
}

// Rewriter rewords text.
type Rewriter interface {
	Paraphrase(ctx context.Context, text string) (string, error)
	Rewrite(ctx context.Context, text string) (string, error)
}

// TextExtractor pulls text out of an image or PDF at a URL.
type TextExtractor interface {
	ExtractText(ctx context.Context, url string) (string, error)
}

// ImageTransformer performs the image tools and returns stored outputs.
type ImageTransformer interface {
	Resize(ctx context.Context, url string, width, height int) (*imaging.Result, error)
	ResizeToKB(ctx context.Context, url string, targetKB float64) (*imaging.Result, error)
	Crop(ctx context.Context, url string, x, y, width, height int) (*imaging.Result, error)
	Convert(ctx context.Context, url string, format imaging.Format) (*imaging.Result, error)
	Compress(ctx context.Context, url string, quality int) (*imaging.CompressResult, error)
}

// DomainInfo answers the domain tools.
type DomainInfo interface {
	Age(ctx context.Context, domain string) (*domaininfo.AgeInfo, error)
	Authority(ctx context.Context, domain string) (*domaininfo.AuthorityInfo, error)
	IP(ctx context.Context, domain string) (*domaininfo.IPInfo, error)
	Hosting(ctx context.Context, domain string) (*domaininfo.HostingInfo, error)
	Records(ctx context.Context, domain string) (*domaininfo.RecordsInfo, error)
}

// Providers bundles the collaborators behind the non-text tools. Every
// field must be set.
type Providers struct {
	Plagiarism PlagiarismChecker
	Rewriter   Rewriter
	Text       TextExtractor
	Images     ImageTransformer
	Domains    DomainInfo
}
