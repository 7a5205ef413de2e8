package tui

import (
	"context"
	"fmt"
	"io"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/meza/minecraft-launcher/internal/downloader"
)

// Sender is the part of *tea.Program the observer needs.
type Sender interface {
	Send(msg tea.Msg)
}

// Observer forwards downloader progress to a running program.
func Observer(sender Sender) downloader.Observer {
	return downloader.ObserverFunc(func(info downloader.Info) {
		sender.Send(ProgressMsg(info))
	})
}

// Work is the job behind a progress bar. It must report progress through observer.
type Work func(ctx context.Context, observer downloader.Observer) error

// RunWithProgress runs work under the interactive bar when in and out are terminals and
// quiet is off; otherwise it prints a line per group to out.
func RunWithProgress(ctx context.Context, header Config, title string, quiet bool, in io.Reader, out io.Writer, work Work) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if !ShouldUseTUI(quiet, in, out) {
		var observer downloader.Observer
		if !quiet {
			observer = PlainObserver(out)
		}
		return work(ctx, observer)
	}

	program := tea.NewProgram(NewProgressModel(header, title, cancel), ProgramOptions(in, out)...)
	var workErr error
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		workErr = work(ctx, Observer(program))
		program.Send(DoneMsg{Err: workErr})
	}()

	if _, err := program.Run(); err != nil {
		cancel()
		wg.Wait()
		return err
	}
	wg.Wait()
	return workErr
}

// PlainObserver writes the group headline each time a batch enters a new group and a
// summary when it finishes.
func PlainObserver(out io.Writer) downloader.Observer {
	var mu sync.Mutex
	group := ""
	return downloader.ObserverFunc(func(info downloader.Info) {
		mu.Lock()
		defer mu.Unlock()
		if info.CurrentGroup != "" && info.CurrentGroup != group {
			group = info.CurrentGroup
			_, _ = fmt.Fprintf(out, "%s\n", group)
		}
		if info.Finished {
			_, _ = fmt.Fprintf(out, "%s\n", Stats(info))
		}
	})
}
