package core

import (
	"context"
)

// WidgetActivation tells a client where to put a non-interactive
// widget's code.
type WidgetActivation struct {
	// BlockIndex is the block number the widget appears in.
	BlockIndex int `json:"blockIndex"`

	// Index is the 1-based position of the widget in its block.
	Index int `json:"index"`

	// Code is the widget's raw code.
	Code string `json:"code"`
}

// Renderer turns content into markup.
//
// This package doesn't care what the markup is.  It only relies on
// the contract:
//
//   - Render resolves text placeholders against the Params and
//     returns widget references separately from the inline markup.
//     A widget reference that the renderer can't resolve is dropped.
//     An unknown content type is an InvalidContent error.
//
//   - Feedback renders rule feedback, which is plain text, so it must
//     be escaped.
//
//   - Echo renders the reader's answer (Answer.Display).
type Renderer interface {
	Render(ctx context.Context, blocks []Content, ps Params, blockNumber int) (string, []WidgetActivation, error)
	Feedback(ctx context.Context, feedback string, ps Params, blockNumber int) (string, []WidgetActivation, error)
	Echo(ctx context.Context, answer interface{}) (string, error)
}

// Catalog provides widget code.
//
// Both methods return a *MissingWidget error for an unknown id.
type Catalog interface {
	// NonInteractive returns the code for a widget embedded in
	// content.
	NonInteractive(ctx context.Context, widgetId string, params map[string]interface{}) (string, error)

	// Interactive returns the code for a state's interactive
	// widget.
	Interactive(ctx context.Context, widgetId string, params map[string]interface{}) (string, error)
}
