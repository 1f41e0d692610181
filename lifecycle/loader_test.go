package lifecycle

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sorenmh/appsmith/failure"
	"github.com/sorenmh/appsmith/models"
)

func TestDetailLoader_SharesInFlightFetch(t *testing.T) {
	tr := &trace{}
	client := newFakeClient(tr, testApp("a", "Alpha", models.ModeChat))
	client.blockCalls()
	loader := NewDetailLoader(client.FetchDetail)

	var wg sync.WaitGroup
	results := make([]*models.Application, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		app, err := loader.Load(context.Background(), "a")
		assert.NoError(t, err)
		results[0] = app
	}()
	<-client.started

	wg.Add(1)
	go func() {
		defer wg.Done()
		app, err := loader.Load(context.Background(), "a")
		assert.NoError(t, err)
		results[1] = app
	}()
	time.Sleep(50 * time.Millisecond)
	close(client.release)
	wg.Wait()

	assert.Equal(t, 1, tr.count("client:fetch:a"))
	require.NotNil(t, results[0])
	require.NotNil(t, results[1])
	assert.Equal(t, "Alpha", results[0].Name)
	assert.Equal(t, "Alpha", results[1].Name)
}

func TestDetailLoader_FailureHoldsNothing(t *testing.T) {
	tr := &trace{}
	loader := NewDetailLoader(newFakeClient(tr).FetchDetail)

	app, err := loader.Load(context.Background(), "missing")
	assert.Nil(t, app)
	assert.Equal(t, failure.KindNotFound, failure.KindOf(err))

	_, ok := loader.Held("missing")
	assert.False(t, ok)
}

func TestDetailLoader_HeldIsACopy(t *testing.T) {
	tr := &trace{}
	loader := NewDetailLoader(newFakeClient(tr, testApp("a", "Alpha", models.ModeChat)).FetchDetail)

	app, err := loader.Load(context.Background(), "a")
	require.NoError(t, err)
	app.Name = "mutated"

	held, ok := loader.Held("a")
	require.True(t, ok)
	assert.Equal(t, "Alpha", held.Name)
}

func TestDetailLoader_PatchAndForget(t *testing.T) {
	tr := &trace{}
	loader := NewDetailLoader(newFakeClient(tr, testApp("a", "Alpha", models.ModeChat)).FetchDetail)

	assert.False(t, loader.Patch("a", func(app *models.Application) { app.Name = "x" }))

	_, err := loader.Load(context.Background(), "a")
	require.NoError(t, err)
	assert.True(t, loader.Patch("a", func(app *models.Application) { app.Site.Title = "Patched" }))

	held, _ := loader.Held("a")
	assert.Equal(t, "Patched", held.Site.Title)
	assert.Equal(t, "Alpha", held.Name)

	loader.Forget("a")
	_, ok := loader.Held("a")
	assert.False(t, ok)
}

func TestDetailLoader_ForgetDuringFetchWins(t *testing.T) {
	tr := &trace{}
	client := newFakeClient(tr, testApp("a", "Alpha", models.ModeChat))
	client.blockCalls()
	loader := NewDetailLoader(client.FetchDetail)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := loader.Load(context.Background(), "a")
		assert.NoError(t, err)
	}()
	<-client.started
	loader.Forget("a")
	close(client.release)
	<-done

	_, ok := loader.Held("a")
	assert.False(t, ok)
}
