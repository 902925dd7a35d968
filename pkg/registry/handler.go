package registry

import (
	"errors"
	"log/slog"

	"github.com/fleetglue/fleetglue-go/pkg/store"
	"github.com/fleetglue/fleetglue-go/pkg/wire"
)

// Handler dispatches decoded wire requests against a namespace.
type Handler struct {
	ns     *store.Namespace
	logger *slog.Logger
}

// NewHandler creates a request handler bound to ns.
func NewHandler(ns *store.Namespace, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{ns: ns, logger: logger}
}

// Handle processes one encoded request and returns the encoded
// response. Malformed requests produce a BadRequest response rather
// than tearing the connection down.
func (h *Handler) Handle(data []byte) []byte {
	req, err := wire.DecodeRequest(data)
	if err != nil {
		h.logger.Debug("bad request", "err", err)
		return encodeResponse(&wire.Response{
			MessageID: wire.ReservedMessageID,
			Status:    wire.StatusBadRequest,
			Payload:   &wire.ErrorPayload{Message: err.Error()},
		})
	}

	resp := h.dispatch(req)
	h.logger.Debug("request handled",
		"msgId", req.MessageID,
		"op", req.Operation.String(),
		"object", req.Object,
		"variable", req.Variable,
		"status", resp.Status.String())
	return encodeResponse(resp)
}

func (h *Handler) dispatch(req *wire.Request) *wire.Response {
	switch req.Operation {
	case wire.OpBrowse:
		return h.browse(req)
	case wire.OpRead:
		return h.read(req)
	case wire.OpWrite:
		return h.write(req)
	default:
		return errorResponse(req.MessageID, wire.StatusBadRequest, "unsupported operation")
	}
}

func (h *Handler) browse(req *wire.Request) *wire.Response {
	var entries []wire.Entry

	if req.Object == "" {
		names, err := h.ns.ListObjects()
		if err != nil {
			return storeErrorResponse(req.MessageID, err)
		}
		for _, name := range names {
			entries = append(entries, wire.Entry{Name: name})
		}
	} else {
		children, err := h.ns.ListChildren(req.Object)
		if err != nil {
			return storeErrorResponse(req.MessageID, err)
		}
		for _, child := range children {
			entries = append(entries, wire.Entry{
				Name:     child.Name,
				Value:    child.Value,
				Writable: child.Writable,
			})
		}
	}

	return &wire.Response{
		MessageID: req.MessageID,
		Status:    wire.StatusSuccess,
		Payload:   &wire.BrowsePayload{Entries: entries},
	}
}

func (h *Handler) read(req *wire.Request) *wire.Response {
	value, err := h.ns.Read(req.Object, req.Variable)
	if err != nil {
		return storeErrorResponse(req.MessageID, err)
	}
	return &wire.Response{
		MessageID: req.MessageID,
		Status:    wire.StatusSuccess,
		Payload:   value,
	}
}

func (h *Handler) write(req *wire.Request) *wire.Response {
	if err := h.ns.Write(req.Object, req.Variable, req.Value); err != nil {
		return storeErrorResponse(req.MessageID, err)
	}
	return &wire.Response{
		MessageID: req.MessageID,
		Status:    wire.StatusSuccess,
	}
}

// storeErrorResponse maps store errors to wire status codes.
func storeErrorResponse(msgID uint32, err error) *wire.Response {
	status := wire.StatusBadRequest
	switch {
	case errors.Is(err, store.ErrObjectNotFound):
		status = wire.StatusNotFoundObject
	case errors.Is(err, store.ErrVariableNotFound):
		status = wire.StatusNotFoundVariable
	case errors.Is(err, store.ErrNotWritable):
		status = wire.StatusReadOnly
	case errors.Is(err, store.ErrTypeMismatch), errors.Is(err, store.ErrUnsupportedKind):
		status = wire.StatusTypeMismatch
	}
	return errorResponse(msgID, status, err.Error())
}

func errorResponse(msgID uint32, status wire.Status, msg string) *wire.Response {
	return &wire.Response{
		MessageID: msgID,
		Status:    status,
		Payload:   &wire.ErrorPayload{Message: msg},
	}
}

func encodeResponse(resp *wire.Response) []byte {
	data, err := wire.EncodeResponse(resp)
	if err != nil {
		// Error payloads are strings and maps of scalars; encoding
		// them cannot fail with the configured mode.
		panic("wire: response encoding failed: " + err.Error())
	}
	return data
}
