package download

import (
	"context"
	"io"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// progress aggregates one bar per active transfer.
type progress struct {
	p *mpb.Progress
}

func newProgress(ctx context.Context, out io.Writer) *progress {
	return &progress{
		p: mpb.NewWithContext(ctx, mpb.WithOutput(out), mpb.WithWidth(40)),
	}
}

// Wait blocks until every bar has completed or been aborted.
func (pr *progress) Wait() {
	pr.p.Wait()
}

// addBar registers a bar for one file. A negative total (unknown length)
// renders as an indeterminate bar until complete is called.
func (pr *progress) addBar(name string, total int64) *fileBar {
	if total < 0 {
		total = 0
	}
	bar := pr.p.AddBar(total,
		mpb.PrependDecorators(
			decor.Name(name, decor.WCSyncSpaceR),
			decor.CountersKibiByte("% .1f / % .1f"),
		),
		mpb.AppendDecorators(
			decor.Percentage(),
		),
	)
	return &fileBar{bar: bar}
}

// fileBar tracks the byte progress of a single transfer.
type fileBar struct {
	bar *mpb.Bar
}

func (b *fileBar) setCurrent(n int64) {
	b.bar.SetCurrent(n)
}

func (b *fileBar) incr(n int64) {
	b.bar.IncrInt64(n)
}

func (b *fileBar) proxyReader(r io.Reader) io.ReadCloser {
	return b.bar.ProxyReader(r)
}

// complete pins the total for transfers whose length was unknown up front.
func (b *fileBar) complete(n int64) {
	b.bar.SetTotal(n, true)
}

// done aborts the bar if the transfer ended early, so Wait does not hang on
// failed files.
func (b *fileBar) done() {
	if !b.bar.Completed() {
		b.bar.Abort(true)
	}
}
