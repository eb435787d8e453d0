package catalog

import (
	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeUpstreamFailure  = "CATALOG_UPSTREAM_FAILURE"
	TextCodeMalformedPayload = "CATALOG_MALFORMED_PAYLOAD"
	TextCodeBadRequest       = "CATALOG_BAD_REQUEST"
)

func sourceError(
	message string,
	category goerrors.Category,
	code int,
	metadata map[string]any,
) error {
	err := goerrors.New(message, category).
		WithCode(code).
		WithTextCode(textCode(category))
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func sourceWrapError(
	source error,
	category goerrors.Category,
	message string,
	code int,
	metadata map[string]any,
) error {
	if source == nil {
		return sourceError(message, category, code, metadata)
	}
	err := goerrors.Wrap(source, category, message).
		WithCode(code).
		WithTextCode(textCode(category))
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func textCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput:
		return TextCodeBadRequest
	case goerrors.CategoryOperation:
		return TextCodeMalformedPayload
	default:
		return TextCodeUpstreamFailure
	}
}
