// Package datasource abstracts where the spreadsheet bytes come from.
package datasource

import (
	"context"
	"io"
)

// Source opens one input document. Name identifies it in logs and in the
// script header and must not depend on the time of the run.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	Name() string
}
