package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// InterruptHandler cancels a batch run on SIGINT/SIGTERM and tells the user
// where the partial results went.
type InterruptHandler struct {
	writer      io.Writer
	cancelFunc  context.CancelFunc
	runID       string
	interrupted bool
	mu          sync.Mutex
}

// NewInterruptHandler creates a new interrupt handler.
func NewInterruptHandler(writer io.Writer) *InterruptHandler {
	if writer == nil {
		writer = os.Stdout
	}
	return &InterruptHandler{
		writer: writer,
	}
}

// HandleInterrupts sets up signal handling and returns a context that will be canceled on interrupt.
// A non-empty runID is echoed so the user can find the decisions logged before the interrupt.
func (h *InterruptHandler) HandleInterrupts(ctx context.Context, runID string) context.Context {
	ctx, cancel := context.WithCancel(ctx)
	h.mu.Lock()
	h.cancelFunc = cancel
	h.runID = runID
	h.mu.Unlock()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case <-sigChan:
			h.interrupt()
		case <-ctx.Done():
		}
	}()

	return ctx
}

func (h *InterruptHandler) interrupt() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.interrupted {
		return
	}
	h.interrupted = true
	h.showInterruptMessage()
	if h.cancelFunc != nil {
		h.cancelFunc()
	}
}

// showInterruptMessage displays a friendly interrupt message.
func (h *InterruptHandler) showInterruptMessage() {
	msg := "\n\n" + FormatWarning("Batch interrupted!")

	if h.runID != "" {
		msg += "\n" + FormatInfo("Decisions made so far are logged under run "+h.runID)
		msg += "\n" + FormatInfo("Inspect them with: listwise decisions --run "+h.runID)
	}

	msg += "\n"

	if _, err := fmt.Fprint(h.writer, msg); err != nil {
		// Best effort - we're shutting down anyway
		fmt.Fprintf(os.Stderr, "Failed to write interrupt message: %v\n", err)
	}
}

// WasInterrupted returns true if the process was interrupted.
func (h *InterruptHandler) WasInterrupted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.interrupted
}
