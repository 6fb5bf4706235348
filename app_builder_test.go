package spotlight

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type MockModule struct {
	installed bool
	order     *[]string
	name      string
}

func (m *MockModule) Install(app *App, commands *Commands) {
	m.installed = true
	if m.order != nil {
		*m.order = append(*m.order, m.name)
	}
}

func TestAppBuilder_Stateless(t *testing.T) {
	app := NewAppBuilder().Build()

	assert.False(t, app.stateful)
	assert.Equal(t, State(0), app.initialState)
	assert.Equal(t, State(0), app.finalState)
}

func TestAppBuilder_UseStates(t *testing.T) {
	app := NewAppBuilder().UseStates(StateStartup, StateShutdown).Build()

	assert.True(t, app.stateful)
	assert.Equal(t, StateStartup, app.initialState)
	assert.Equal(t, StateShutdown, app.finalState)
	for _, stage := range app.stages {
		for state := StateStartup; state <= StateShutdown; state++ {
			assert.Contains(t, app.systems[stage.Name], state)
		}
	}
}

func TestAppBuilder_UseModule(t *testing.T) {
	builder := NewAppBuilder()
	builder.UseModule(&MockModule{})

	assert.Len(t, builder.modules, 1)
}

func TestAppBuilder_Build_InstallsInOrder(t *testing.T) {
	var order []string
	first := &MockModule{name: "first", order: &order}
	second := &MockModule{name: "second", order: &order}

	builder := NewAppBuilder()
	builder.UseModule(first)
	builder.UseModule(second)
	builder.Build()

	assert.Len(t, builder.modules, 2)
	assert.True(t, first.installed)
	assert.True(t, second.installed)
	assert.Equal(t, []string{"first", "second"}, order)
}
