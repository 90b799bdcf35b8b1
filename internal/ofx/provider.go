package ofx

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Veraticus/payroll-sentinel/internal/common"
	"github.com/Veraticus/payroll-sentinel/internal/model"
	"github.com/Veraticus/payroll-sentinel/internal/service"
)

// FileBalanceProvider serves balances from statement downloads named after the
// company: <dir>/<companyID>.ofx or <dir>/<companyID>.qfx.
type FileBalanceProvider struct {
	parser *Parser
	dir    string
}

// NewFileBalanceProvider creates a provider reading statements from dir.
func NewFileBalanceProvider(dir string) *FileBalanceProvider {
	return &FileBalanceProvider{parser: NewParser(), dir: dir}
}

// GetCurrentBalance implements service.BalanceProvider.
func (f *FileBalanceProvider) GetCurrentBalance(ctx context.Context, companyID string) (model.Balance, error) {
	for _, ext := range []string{".ofx", ".qfx"} {
		path := filepath.Join(f.dir, companyID+ext)
		file, err := os.Open(path) // #nosec G304 - path is built from the configured statement directory
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return model.Balance{}, fmt.Errorf("failed to open statement: %w", err)
		}

		balance, err := f.parser.ParseBalance(ctx, file)
		_ = file.Close()
		if err != nil {
			return model.Balance{}, fmt.Errorf("statement %s: %w", path, err)
		}
		return balance, nil
	}
	return model.Balance{}, fmt.Errorf("no statement for company %s in %s: %w", companyID, f.dir, common.ErrNotFound)
}

var _ service.BalanceProvider = (*FileBalanceProvider)(nil)
