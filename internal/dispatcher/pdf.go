// pdf.go — browser_pdf_save: Page.printToPDF, save base64 to file
// (spec §4.4).
package dispatcher

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"os"
)

type pdfSaveArgs struct {
	FilePath string `json:"filePath"`
}

type printToPDFResult struct {
	Data string `json:"data"`
}

func (d *Dispatcher) registerPDFTools() {
	d.register("browser_pdf_save", "Print the attached tab to PDF and save it to a file path.", map[string]any{
		"type":       "object",
		"properties": map[string]any{"filePath": map[string]any{"type": "string"}},
		"required":   []string{"filePath"},
	}, handlePDFSave)
}

func handlePDFSave(ctx context.Context, d *Dispatcher, raw json.RawMessage) (toolResult, error) {
	var args pdfSaveArgs
	if err := decodeArgs(raw, &args); err != nil {
		return toolResult{}, err
	}

	result, err := cdp(ctx, d.transport, "Page.printToPDF", map[string]any{})
	if err != nil {
		return toolResult{}, err
	}
	var pdf printToPDFResult
	if err := json.Unmarshal(result, &pdf); err != nil {
		return toolResult{}, err
	}

	decoded, err := base64.StdEncoding.DecodeString(pdf.Data)
	if err != nil {
		return toolResult{}, err
	}
	if err := os.WriteFile(args.FilePath, decoded, 0o644); err != nil {
		return toolResult{}, err
	}
	return ok(map[string]any{"savedTo": args.FilePath, "bytes": len(decoded)}), nil
}
