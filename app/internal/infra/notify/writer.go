package notify

import (
	"context"
	"fmt"
	"io"

	domnotification "example.com/rocketshoes/app/internal/domain/notification"
)

// Writer prints toasts as lines, for terminal front ends.
type Writer struct {
	w io.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (p *Writer) Notify(ctx context.Context, n domnotification.Notification) {
	prefix := "✔"
	if n.Kind == domnotification.KindError {
		prefix = "✖"
	}
	fmt.Fprintf(p.w, "%s %s\n", prefix, n.Message)
}
