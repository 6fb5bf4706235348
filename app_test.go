package spotlight

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockResource1 struct {
	name string
}
type MockResource2 struct {
	name string
}

func NewMockResource1(name string) *MockResource1 {
	return &MockResource1{name: name}
}
func NewMockResource2(name string) *MockResource2 {
	return &MockResource2{name: name}
}

func TestApp_changeState(t *testing.T) {
	app := &App{
		stateful:     true,
		initialState: 1,
		state:        1,
		finalState:   2,
	}

	app.changeState(2)
	assert.Equal(t, State(2), app.nextState)
	assert.True(t, app.stateTransitioning)

	app.executeChangeState(2)
	assert.Equal(t, State(2), app.state)
}

func TestApp_addResources(t *testing.T) {
	app := &App{
		resources: make(map[reflect.Type]any),
	}

	resource1 := NewMockResource1("Resource1")
	app.addResources(resource1)
	assert.Contains(t, app.resources, reflect.TypeOf(resource1).Elem(), "Resource1 should be in resources map.")

	require.PanicsWithValue(t, fmt.Sprintf("%s is already in resources", reflect.TypeOf(resource1)), func() {
		app.addResources(resource1)
	})

	resource2 := NewMockResource2("Resource2")
	app.addResources(resource2)
	assert.Contains(t, app.resources, reflect.TypeOf(resource2).Elem(), "Resource2 should be in resources map.")

	require.Panics(t, func() {
		app.addResources(MockResource1{name: "by value"})
	})
}

func TestResource(t *testing.T) {
	app := NewApp()
	app.addResources(NewMockResource1("r1"))

	r1, ok := Resource[MockResource1](app)
	require.True(t, ok)
	assert.Equal(t, "r1", r1.name)

	_, ok = Resource[MockResource2](app)
	assert.False(t, ok)
}

func TestApp_callSystemResolvesResources(t *testing.T) {
	app := NewApp()
	app.addResources(NewMockResource1("r1"), NewMockResource2("r2"))

	var got []string
	app.callSystem(func(cmd *Commands, a *MockResource1, b *MockResource2, logger Logger) {
		require.NotNil(t, cmd)
		require.NotNil(t, logger)
		got = append(got, a.name, b.name)
	})
	assert.Equal(t, []string{"r1", "r2"}, got)
}

func TestApp_callSystemUnresolvedPanics(t *testing.T) {
	app := NewApp()
	assert.Panics(t, func() {
		app.callSystem(func(*MockResource1) {})
	})
	assert.Panics(t, func() {
		app.callSystem(func(int) {})
	})
}

func TestApp_RunStatefulOrder(t *testing.T) {
	var trace []string
	record := func(s string) func() {
		return func() { trace = append(trace, s) }
	}

	app := NewAppBuilder().UseStates(0, 2).Build()
	app.UseSystem(System(record("enter0")).InState(OnEnter(0)))
	app.UseSystem(System(func(cmd *Commands) {
		trace = append(trace, "exec0")
		cmd.ChangeState(1)
	}).InState(OnExecute(0)))
	app.UseSystem(System(record("exit0")).InState(OnExit(0)))
	app.UseSystem(System(record("enter1")).InState(OnEnter(1)))
	app.UseSystem(System(func(cmd *Commands) {
		trace = append(trace, "exec1")
		cmd.ChangeState(2)
	}).InState(OnExecute(1)))
	app.UseSystem(System(record("enter2")).InState(OnEnter(2)))
	app.UseSystem(System(record("exit2")).InState(OnExit(2)))
	app.UseSystem(System(record("always")).InStage(Prelude).RunAlways())

	app.Run()

	assert.Equal(t, []string{
		"enter0",
		"always", "exec0", "exit0", "enter1",
		"always", "exec1", "enter2", "exit2",
	}, trace)
	assert.Equal(t, State(2), app.State())
}

func TestApp_RunStatelessQuit(t *testing.T) {
	app := NewApp()
	calls := 0
	app.UseSystem(System(func(cmd *Commands) {
		calls++
		if calls == 3 {
			cmd.Quit()
		}
	}))
	app.Run()
	assert.Equal(t, 3, calls)
}

func TestApp_UseStage(t *testing.T) {
	app := NewApp()
	custom := Stage{Name: "Custom"}
	app.UseStage(custom, AfterStage(Update))

	idx := -1
	for i, s := range app.stages {
		if s.Name == custom.Name {
			idx = i
		}
	}
	require.NotEqual(t, -1, idx)
	assert.Equal(t, Update.Name, app.stages[idx-1].Name)

	assert.Panics(t, func() {
		app.UseStage(Stage{Name: "Other"}, BeforeStage(Stage{Name: "Missing"}))
	})
}

func TestApp_StatefulSystemInStatelessAppPanics(t *testing.T) {
	app := NewApp()
	assert.Panics(t, func() {
		app.UseSystem(System(func() {}).InState(OnEnter(0)))
	})
}
