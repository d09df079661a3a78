package converter

import (
	"fmt"

	"go.uber.org/zap"
)

type DiagnosticKind int

const (
	MissingReference DiagnosticKind = iota
	Unsupported
)

func (k DiagnosticKind) String() string {
	switch k {
	case MissingReference:
		return "MissingReference"
	case Unsupported:
		return "Unsupported"
	}
	return "Unknown"
}

// Diagnostic is a recoverable problem found while converting.
type Diagnostic struct {
	Kind      DiagnosticKind
	Component string
	Message   string
}

func (d *Diagnostic) String() string {
	return fmt.Sprintf("%v(%v): %v", d.Kind, d.Component, d.Message)
}

// diagnostics collects diagnostics and mirrors them to the logger.
type diagnostics struct {
	log  *zap.Logger
	list []*Diagnostic
}

func newDiagnostics(log *zap.Logger) *diagnostics {
	if log == nil {
		log = zap.NewNop()
	}
	return &diagnostics{log: log}
}

func (d *diagnostics) add(kind DiagnosticKind, component, format string, args ...any) {
	diag := &Diagnostic{Kind: kind, Component: component, Message: fmt.Sprintf(format, args...)}
	d.list = append(d.list, diag)
	d.log.Warn(diag.Message, zap.Stringer("kind", kind), zap.String("component", component))
}

func (d *diagnostics) missing(component, format string, args ...any) {
	d.add(MissingReference, component, format, args...)
}

func (d *diagnostics) unsupported(component, format string, args ...any) {
	d.add(Unsupported, component, format, args...)
}
