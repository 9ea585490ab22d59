package bookroll

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// VerifyPageCount parses pdf and checks that it holds exactly want pages.
func VerifyPageCount(pdf []byte, want int) error {
	if len(pdf) == 0 {
		return fmt.Errorf("%w: empty document", ErrPDFGeneration)
	}
	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(pdf), conf)
	if err != nil {
		return fmt.Errorf("%w: reading output: %v", ErrPDFGeneration, err)
	}
	if ctx.PageCount != want {
		return fmt.Errorf("%w: document has %d pages, want %d", ErrPDFGeneration, ctx.PageCount, want)
	}
	return nil
}
