package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
)

func TestGetApplicationOptions_GraphIsComplete(t *testing.T) {
	require.NoError(t, fx.ValidateApp(GetApplicationOptions(context.Background(), "", embeddedConfig)...))
}
