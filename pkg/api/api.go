package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	kithttp "github.com/go-kit/kit/transport/http"

	"github.com/modelfold/modelfold/contributor"
	"github.com/modelfold/modelfold/ledger"
	"github.com/modelfold/modelfold/pkg/contentstore"
	pkgerrors "github.com/modelfold/modelfold/pkg/errors"
	"github.com/modelfold/modelfold/session"
)

var (
	// ErrValidation marks request decoding and validation failures.
	ErrValidation = errors.New("failed to validate request")

	ErrUnsupportedContentType = errors.New("unsupported content type")
	ErrMissingID              = errors.New("missing entity id")
)

const (
	OffsetKey = "offset"
	LimitKey  = "limit"
	DefOffset = 0
	DefLimit  = 100

	ContentType = "application/json"
)

// Response lets endpoint responses carry their own status code and headers
// through the generic encoder.
type Response interface {
	Code() int
	Headers() map[string]string
	Empty() bool
}

func EncodeResponse(_ context.Context, w http.ResponseWriter, response interface{}) error {
	if ar, ok := response.(Response); ok {
		for k, v := range ar.Headers() {
			w.Header().Set(k, v)
		}
		w.Header().Set("Content-Type", ContentType)
		w.WriteHeader(ar.Code())

		if ar.Empty() {
			return nil
		}
	}

	return json.NewEncoder(w).Encode(response)
}

func EncodeError(_ context.Context, err error, w http.ResponseWriter) {
	w.Header().Set("Content-Type", ContentType)
	switch {
	case errors.Is(err, ErrValidation),
		errors.Is(err, pkgerrors.ErrEmptyKey),
		errors.Is(err, pkgerrors.ErrInvalidData),
		errors.Is(err, session.ErrInvalidConfig):
		w.WriteHeader(http.StatusBadRequest)
	case errors.Is(err, pkgerrors.ErrNotAuthorized):
		w.WriteHeader(http.StatusForbidden)
	case errors.Is(err, pkgerrors.ErrNotFound),
		errors.Is(err, ledger.ErrModelNotFound),
		errors.Is(err, ledger.ErrUnknownModelVersion),
		errors.Is(err, contributor.ErrUnknownContributor),
		errors.Is(err, contentstore.ErrNotFound):
		w.WriteHeader(http.StatusNotFound)
	case errors.Is(err, pkgerrors.ErrEntityExists),
		errors.Is(err, session.ErrSessionConflict),
		errors.Is(err, session.ErrInvalidTransition),
		errors.Is(err, ledger.ErrStaleVersion),
		errors.Is(err, ledger.ErrAlreadyFinalized),
		errors.Is(err, ledger.ErrVersionActive):
		w.WriteHeader(http.StatusConflict)
	case errors.Is(err, contentstore.ErrUnavailable):
		w.WriteHeader(http.StatusServiceUnavailable)
	default:
		w.WriteHeader(http.StatusInternalServerError)
	}

	if encErr := json.NewEncoder(w).Encode(map[string]string{"error": err.Error()}); encErr != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// LoggingErrorEncoder logs the error before handing it to enc.
func LoggingErrorEncoder(logger *slog.Logger, enc kithttp.ErrorEncoder) kithttp.ErrorEncoder {
	return func(ctx context.Context, err error, w http.ResponseWriter) {
		if errors.Is(err, ErrValidation) {
			logger.Error(err.Error())
		}
		enc(ctx, err, w)
	}
}

// ReadNumQuery reads an unsigned numeric query parameter, falling back to def
// when absent.
func ReadNumQuery(r *http.Request, key string, def uint64) (uint64, error) {
	val := r.URL.Query().Get(key)
	if val == "" {
		return def, nil
	}

	n, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, errors.Join(pkgerrors.ErrInvalidData, err)
	}

	return n, nil
}
