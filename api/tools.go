package api

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"

	"seotools/metatags"
	"seotools/textcase"
	"seotools/textmetrics"
	"seotools/texttools"
)

// toolFunc computes the data of one tool from its payload.
type toolFunc func(ctx context.Context, p Payload) (any, error)

// tool is a POST /api/tools/<id> endpoint.
type tool struct {
	id string
	// failMessage is the summary sent with InternalErrors.
	failMessage string
	run         toolFunc
}

// tools lists every endpoint. Ids match the embedded catalog.
func (s *Server) tools() []tool {
	return []tool{
		{"word-counter", "Error processing word count", s.wordCounter},
		{"keyword-density", "Error analyzing keyword density", s.keywordDensity},
		{"meta-tag-generator", "Error generating meta tags", s.metaTagGenerator},
		{"text-case-converter", "Error converting text case", s.textCaseConverter},
		{"plagiarism-checker", "Error checking for plagiarism", s.plagiarismChecker},
		{"paraphrasing-tool", "Error paraphrasing text", s.paraphrase},
		{"md5-generator", "Error generating MD5 hash", s.md5Generator},
		{"word-combiner", "Error combining words", s.wordCombiner},
		{"image-to-text", "Error extracting text from image", s.imageToText},
		{"article-rewriter", "Error rewriting article", s.articleRewriter},
		{"image-resizer", "Error resizing image", s.imageResizer},
		{"photo-resizer-kb", "Error resizing photo", s.photoResizerKB},
		{"crop-image", "Error cropping image", s.cropImage},
		{"convert-to-jpg", "Error converting image to JPG", s.convertToJPG},
		{"png-to-jpg", "Error converting PNG to JPG", s.pngToJPG},
		{"jpg-to-png", "Error converting JPG to PNG", s.jpgToPNG},
		{"compress-image", "Error compressing image", s.compressImage},
		{"domain-age", "Error checking domain age", s.domainAge},
		{"domain-authority", "Error checking domain authority", s.domainAuthority},
		{"domain-ip", "Error looking up domain IP", s.domainIP},
		{"domain-hosting", "Error checking domain hosting", s.domainHosting},
		{"dns-records", "Error fetching DNS records", s.dnsRecords},
	}
}

// handleTool adapts a toolFunc to HTTP: decode, run, write the envelope.
func (s *Server) handleTool(t tool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("tool panicked",
					zap.String("tool", t.id),
					zap.Any("panic", rec),
					zap.ByteString("stack", debug.Stack()))
				writeError(w, &InternalError{Message: t.failMessage, Err: fmt.Errorf("%v", rec)})
			}
		}()

		p, err := decodePayload(r)
		if err != nil {
			writeError(w, err)
			return
		}

		data, err := t.run(r.Context(), p)
		if err != nil {
			err = classify(err, t.failMessage)
			if ie, ok := err.(*InternalError); ok {
				s.logger.Error("tool failed", zap.String("tool", t.id), zap.Error(ie.Err))
			}
			writeError(w, err)
			return
		}
		writeSuccess(w, data)
	}
}

// requireText returns the "text" field or a ValidationError.
func requireText(p Payload) (string, error) {
	if !p.Present("text") {
		return "", NewValidationError("Text is required")
	}
	return p.String("text")
}

// Text tools

func (s *Server) wordCounter(ctx context.Context, p Payload) (any, error) {
	text, err := requireText(p)
	if err != nil {
		return nil, err
	}
	return textmetrics.Analyze(text), nil
}

func (s *Server) keywordDensity(ctx context.Context, p Payload) (any, error) {
	text, err := requireText(p)
	if err != nil {
		return nil, err
	}
	exclude, err := p.String("excludeWords")
	if err != nil {
		return nil, err
	}
	minLength, err := minLengthOption(p)
	if err != nil {
		return nil, err
	}
	return textmetrics.KeywordDensity(text, textmetrics.DensityOptions{
		ExcludeWords: exclude,
		MinLength:    minLength,
	}), nil
}

// minLengthOption maps the request value onto DensityOptions.MinLength:
// absent or 0 selects the default, a negative value keeps every token and
// fractions round up because token lengths are whole.
func minLengthOption(p Payload) (int, error) {
	f, ok, err := p.Float("minLength")
	if err != nil || !ok || f == 0 {
		return 0, err
	}
	if f < 0 {
		return 1, nil
	}
	return int(math.Ceil(math.Min(f, math.MaxInt32))), nil
}

type metaTagsData struct {
	MetaTagsHTML string `json:"metaTagsHtml"`
}

func (s *Server) metaTagGenerator(ctx context.Context, p Payload) (any, error) {
	var f metatags.Fields
	for _, field := range []struct {
		key string
		dst *string
	}{
		{"title", &f.Title},
		{"description", &f.Description},
		{"keywords", &f.Keywords},
		{"author", &f.Author},
		{"ogTitle", &f.OGTitle},
		{"ogDescription", &f.OGDescription},
		{"ogImage", &f.OGImage},
		{"twitterCard", &f.TwitterCard},
		{"twitterSite", &f.TwitterSite},
		{"canonical", &f.Canonical},
	} {
		v, err := p.String(field.key)
		if err != nil {
			return nil, err
		}
		*field.dst = v
	}
	return metaTagsData{MetaTagsHTML: metatags.Generate(f, metatags.Options{Escape: p.Bool("escape")})}, nil
}

type convertedTextData struct {
	ConvertedText string `json:"convertedText"`
}

func (s *Server) textCaseConverter(ctx context.Context, p Payload) (any, error) {
	text, err := requireText(p)
	if err != nil {
		return nil, err
	}
	if !p.Present("conversionType") {
		return nil, NewValidationError("Conversion type is required")
	}
	mode, err := p.String("conversionType")
	if err != nil {
		return nil, err
	}
	return convertedTextData{ConvertedText: textcase.Convert(text, textcase.Mode(mode))}, nil
}

type hashData struct {
	Hash string `json:"hash"`
}

func (s *Server) md5Generator(ctx context.Context, p Payload) (any, error) {
	text, err := requireText(p)
	if err != nil {
		return nil, err
	}
	return hashData{Hash: texttools.MD5Hex(text)}, nil
}

type combinedTextData struct {
	CombinedText string `json:"combinedText"`
}

func (s *Server) wordCombiner(ctx context.Context, p Payload) (any, error) {
	words, ok, err := p.Strings("words")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, NewValidationError("Words array is required")
	}
	return combinedTextData{CombinedText: texttools.Combine(words)}, nil
}

// Content tools

func (s *Server) plagiarismChecker(ctx context.Context, p Payload) (any, error) {
	text, err := requireText(p)
	if err != nil {
		return nil, err
	}
	return s.providers.Plagiarism.Check(ctx, text)
}

type paraphraseData struct {
	ParaphrasedText string `json:"paraphrasedText"`
}

func (s *Server) paraphrase(ctx context.Context, p Payload) (any, error) {
	text, err := requireText(p)
	if err != nil {
		return nil, err
	}
	out, err := s.providers.Rewriter.Paraphrase(ctx, text)
	if err != nil {
		return nil, err
	}
	return paraphraseData{ParaphrasedText: out}, nil
}

type rewriteData struct {
	RewrittenText string `json:"rewrittenText"`
}

func (s *Server) articleRewriter(ctx context.Context, p Payload) (any, error) {
	text, err := requireText(p)
	if err != nil {
		return nil, err
	}
	out, err := s.providers.Rewriter.Rewrite(ctx, text)
	if err != nil {
		return nil, err
	}
	return rewriteData{RewrittenText: out}, nil
}
