package telemetry

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInitExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := Init(&buf)
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "mongo.products.find")
	span.End()
	require.NoError(t, shutdown(context.Background()))

	assert.Contains(t, buf.String(), "mongo.products.find")
	assert.Contains(t, buf.String(), ServiceName)
}
