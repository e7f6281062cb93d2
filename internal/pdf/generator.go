// Package pdf renders record sheets to HTML and, through a headless browser, to PDF.
package pdf

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

const renderTimeout = 30 * time.Second

// A4 in inches, as the DevTools protocol expects.
const (
	a4Width  = 8.27
	a4Height = 11.69
	margin   = 0.5
)

// sheetFooter numbers the pages of a multi-page sheet.
const sheetFooter = `<div style="width:100%;font-size:8px;text-align:center;color:#666">` +
	`Página <span class="pageNumber"></span> de <span class="totalPages"></span></div>`

// ChromeRenderer prints HTML to PDF with a local Chromium started per call.
type ChromeRenderer struct {
	// Bin overrides the browser binary; empty means launcher.LookPath.
	Bin string
}

// RenderPDF 使用 go-rod 在无头浏览器中渲染 HTML 并返回 PDF 字节。
func (r ChromeRenderer) RenderPDF(ctx context.Context, htmlContent string) ([]byte, error) {
	launch := launcher.New().
		Context(ctx).
		Headless(true).
		NoSandbox(true)

	if r.Bin != "" {
		launch = launch.Bin(r.Bin)
	} else if path, ok := launcher.LookPath(); ok {
		launch = launch.Bin(path)
	}

	browserURL, err := launch.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chromium: %w", err)
	}
	defer launch.Cleanup()

	browser := rod.New().Context(ctx).ControlURL(browserURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	defer func() {
		_ = browser.Close()
	}()

	page, err := browser.Timeout(renderTimeout).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	defer func() {
		_ = page.Close()
	}()

	page = page.Timeout(renderTimeout)
	if err := page.SetDocumentContent(htmlContent); err != nil {
		return nil, fmt.Errorf("set document content: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait load: %w", err)
	}

	reader, err := page.PDF(&proto.PagePrintToPDF{
		PrintBackground:     true,
		PaperWidth:          floatPtr(a4Width),
		PaperHeight:         floatPtr(a4Height),
		MarginTop:           floatPtr(margin),
		MarginBottom:        floatPtr(margin + 0.2),
		MarginLeft:          floatPtr(margin),
		MarginRight:         floatPtr(margin),
		DisplayHeaderFooter: true,
		HeaderTemplate:      "<span></span>",
		FooterTemplate:      sheetFooter,
	})
	if err != nil {
		return nil, fmt.Errorf("export pdf: %w", err)
	}
	defer func() {
		_ = reader.Close()
	}()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read pdf bytes: %w", err)
	}
	return data, nil
}

func floatPtr(v float64) *float64 { return &v }
