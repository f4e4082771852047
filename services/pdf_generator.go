package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"kanzlei_app_go/models"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// PDFOptions contains options for PDF generation
type PDFOptions struct {
	ChromePath      string // Chrome executable, empty uses the chromedp default
	PageOrientation string // portrait, landscape
	PageSize        string // letter, legal, A4
	MarginTop       int    // points (72 = 1 inch)
	MarginBottom    int
	MarginLeft      int
	MarginRight     int
}

// DefaultPDFOptions returns default options for office documents (A4 portrait)
func DefaultPDFOptions() PDFOptions {
	return PDFOptions{
		PageOrientation: "portrait",
		PageSize:        "A4",
		MarginTop:       72,
		MarginBottom:    72,
		MarginLeft:      72,
		MarginRight:     72,
	}
}

// GeneratePDF renders HTML content to PDF using headless Chrome
func GeneratePDF(htmlContent string, options PDFOptions) ([]byte, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.DisableGPU,
	)

	// Custom Chrome path (for headless-shell in Docker)
	if options.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(options.ChromePath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	defer allocCancel()

	// Create a new browser context
	ctx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	// Set up page dimensions based on options
	var paperWidth, paperHeight float64
	switch options.PageSize {
	case "legal":
		paperWidth = 8.5
		paperHeight = 14.0
	case "letter":
		paperWidth = 8.5
		paperHeight = 11.0
	default: // A4
		paperWidth = 8.27
		paperHeight = 11.69
	}

	// Swap dimensions for landscape
	if options.PageOrientation == "landscape" {
		paperWidth, paperHeight = paperHeight, paperWidth
	}

	// Convert points to inches for margins
	marginTop := float64(options.MarginTop) / 72.0
	marginBottom := float64(options.MarginBottom) / 72.0
	marginLeft := float64(options.MarginLeft) / 72.0
	marginRight := float64(options.MarginRight) / 72.0

	var pdfBuf []byte

	// Run the Chrome actions
	err := chromedp.Run(ctx,
		// Navigate to a blank page first
		chromedp.Navigate("about:blank"),
		// Set the HTML content
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, htmlContent).Do(ctx)
		}),
		// Wait for content to render
		chromedp.Sleep(100 * time.Millisecond),
		// Generate PDF
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPaperWidth(paperWidth).
				WithPaperHeight(paperHeight).
				WithMarginTop(marginTop).
				WithMarginBottom(marginBottom).
				WithMarginLeft(marginLeft).
				WithMarginRight(marginRight).
				WithPrintBackground(true).
				WithDisplayHeaderFooter(false).
				Do(ctx)
			if err != nil {
				return err
			}
			pdfBuf = buf
			return nil
		}),
	)

	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	return pdfBuf, nil
}

var coverSheetTemplate = template.Must(template.New("coversheet").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
	body { font-family: Georgia, serif; color: #1a1a1a; }
	h1 { font-size: 22px; border-bottom: 2px solid #1a1a1a; padding-bottom: 8px; }
	h2 { font-size: 14px; text-transform: uppercase; letter-spacing: 1px; margin-top: 28px; }
	table { width: 100%; border-collapse: collapse; margin-top: 8px; }
	td { padding: 4px 8px; vertical-align: top; font-size: 13px; }
	td.label { width: 35%; color: #555; }
	.status { font-weight: bold; }
	.meta { margin-top: 40px; font-size: 11px; color: #777; }
</style>
</head>
<body>
	<h1>Case File {{.FileNumber}}</h1>
	<table>
		<tr><td class="label">Status</td><td class="status">{{.Status}}</td></tr>
		<tr><td class="label">Created</td><td>{{.Created}}</td></tr>
		{{if .Closed}}<tr><td class="label">Closed</td><td>{{.Closed}}</td></tr>{{end}}
	</table>

	<h2>Client</h2>
	<table>
		<tr><td class="label">Name</td><td>{{.Client.DisplayName}}</td></tr>
		{{if .Client.ContactPerson}}<tr><td class="label">Contact</td><td>{{.Client.ContactPerson}}</td></tr>{{end}}
		<tr><td class="label">Address</td><td>{{.Client.Street}}, {{.Client.PostalCode}} {{.Client.City}}</td></tr>
		{{if .Client.Phone}}<tr><td class="label">Phone</td><td>{{.Client.Phone}}</td></tr>{{end}}
		{{if .Client.Email}}<tr><td class="label">Email</td><td>{{.Client.Email}}</td></tr>{{end}}
	</table>

	<h2>Opponent</h2>
	<table>
		<tr><td class="label">Name</td><td>{{.Opponent.DisplayName}}</td></tr>
		{{if .Opponent.ContactPerson}}<tr><td class="label">Contact</td><td>{{.Opponent.ContactPerson}}</td></tr>{{end}}
		<tr><td class="label">Address</td><td>{{.Opponent.Street}}, {{.Opponent.PostalCode}} {{.Opponent.City}}</td></tr>
		{{if .Opponent.Phone}}<tr><td class="label">Phone</td><td>{{.Opponent.Phone}}</td></tr>{{end}}
		{{if .Opponent.Email}}<tr><td class="label">Email</td><td>{{.Opponent.Email}}</td></tr>{{end}}
	</table>

	{{if .ModusOperandi}}
	<h2>Case Description</h2>
	<p>{{.ModusOperandi}}</p>
	{{end}}

	<div class="meta">Generated {{.Generated}}</div>
</body>
</html>`))

type coverSheetData struct {
	FileNumber    string
	Status        string
	Created       string
	Closed        string
	Client        models.PartySnapshot
	Opponent      models.PartySnapshot
	ModusOperandi string
	Generated     string
}

// BuildCaseCoverSheetHTML renders the cover sheet for a case. Party data goes
// through the display rule, so closed cases print their frozen snapshot.
func BuildCaseCoverSheetHTML(kase *models.Case) (string, error) {
	data := coverSheetData{
		FileNumber:    kase.FileNumber,
		Status:        kase.Status,
		Created:       kase.CreatedAt.Format("02.01.2006"),
		Client:        kase.DisplayClient(),
		Opponent:      kase.DisplayOpponent(),
		ModusOperandi: kase.ModusOperandi,
		Generated:     time.Now().Format("02.01.2006 15:04"),
	}
	if kase.ClosedAt != nil {
		data.Closed = kase.ClosedAt.Format("02.01.2006")
	}

	var buf bytes.Buffer
	if err := coverSheetTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render cover sheet: %w", err)
	}
	return buf.String(), nil
}

// GenerateCaseCoverSheet renders a case cover sheet PDF
func GenerateCaseCoverSheet(kase *models.Case, chromePath string) ([]byte, error) {
	html, err := BuildCaseCoverSheetHTML(kase)
	if err != nil {
		return nil, err
	}
	options := DefaultPDFOptions()
	options.ChromePath = chromePath
	return GeneratePDF(html, options)
}
