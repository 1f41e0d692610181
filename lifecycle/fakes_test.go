package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sorenmh/appsmith/events"
	"github.com/sorenmh/appsmith/failure"
	"github.com/sorenmh/appsmith/models"
)

// trace is a shared, ordered log of everything the coordinator touched
type trace struct {
	mu    sync.Mutex
	lines []string
}

func (t *trace) add(format string, args ...interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines = append(t.lines, fmt.Sprintf(format, args...))
}

func (t *trace) all() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.lines...)
}

func (t *trace) count(line string) int {
	n := 0
	for _, l := range t.all() {
		if l == line {
			n++
		}
	}
	return n
}

func (t *trace) index(line string) int {
	for i, l := range t.all() {
		if l == line {
			return i
		}
	}
	return -1
}

type fakeClient struct {
	trace *trace

	mu     sync.Mutex
	apps   map[string]*models.Application
	errs   map[string]error
	nextID int

	// when set, blocked ops wait for release after signalling started
	started chan string
	release chan struct{}
	blocked map[string]bool
}

func newFakeClient(tr *trace, apps ...*models.Application) *fakeClient {
	f := &fakeClient{
		trace: tr,
		apps:  make(map[string]*models.Application),
		errs:  make(map[string]error),
	}
	for _, app := range apps {
		f.apps[app.ID] = app
	}
	return f
}

func (f *fakeClient) failWith(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[op] = err
}

// blockCalls makes the named ops wait for release. With no names every op
// blocks.
func (f *fakeClient) blockCalls(ops ...string) {
	f.started = make(chan string, 8)
	f.release = make(chan struct{})
	if len(ops) > 0 {
		f.blocked = make(map[string]bool)
		for _, op := range ops {
			f.blocked[op] = true
		}
	}
}

func (f *fakeClient) wait(op string) {
	if f.started == nil {
		return
	}
	if f.blocked != nil && !f.blocked[op] {
		return
	}
	f.started <- op
	<-f.release
}

func (f *fakeClient) enter(op, id string) error {
	f.trace.add("client:%s:%s", op, id)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errs[op]
}

func (f *fakeClient) FetchDetail(ctx context.Context, id string) (*models.Application, error) {
	if err := f.enter("fetch", id); err != nil {
		return nil, err
	}
	f.wait("fetch")

	f.mu.Lock()
	defer f.mu.Unlock()
	app, ok := f.apps[id]
	if !ok {
		return nil, failure.NotFound("application not found")
	}
	cp := *app
	return &cp, nil
}

func (f *fakeClient) UpdateInfo(ctx context.Context, id string, req *models.UpdateInfoRequest) (*models.Application, error) {
	if err := f.enter("update", id); err != nil {
		return nil, err
	}
	f.wait("update")

	f.mu.Lock()
	defer f.mu.Unlock()
	app, ok := f.apps[id]
	if !ok {
		return nil, failure.NotFound("application not found")
	}
	app.Name = req.Name
	app.Icon = req.Icon
	app.IconBackground = req.IconBackground
	app.Description = req.Description
	app.UpdatedAt = time.Now()
	cp := *app
	return &cp, nil
}

func (f *fakeClient) UpdateSiteConfig(ctx context.Context, id string, params *models.SiteConfigParams) error {
	if err := f.enter("site", id); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	app, ok := f.apps[id]
	if !ok {
		return failure.NotFound("application not found")
	}
	app.Site = params.Apply(app.Site)
	return nil
}

func (f *fakeClient) Duplicate(ctx context.Context, id string, req *models.DuplicateRequest) (*models.Application, error) {
	if err := f.enter("duplicate", id); err != nil {
		return nil, err
	}
	f.wait("duplicate")

	f.mu.Lock()
	defer f.mu.Unlock()
	src, ok := f.apps[id]
	if !ok {
		return nil, failure.NotFound("application not found")
	}
	f.nextID++
	app := *src
	app.ID = fmt.Sprintf("copy-%d", f.nextID)
	app.Name = req.Name
	app.Icon = req.Icon
	app.IconBackground = req.IconBackground
	app.Mode = req.Mode
	f.apps[app.ID] = &app
	cp := app
	return &cp, nil
}

func (f *fakeClient) Export(ctx context.Context, id string) ([]byte, error) {
	if err := f.enter("export", id); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	app, ok := f.apps[id]
	if !ok {
		return nil, failure.NotFound("application not found")
	}
	return yaml.Marshal(models.NewSnapshot(app))
}

func (f *fakeClient) Delete(ctx context.Context, id string) error {
	if err := f.enter("delete", id); err != nil {
		return err
	}
	f.wait("delete")

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.apps[id]; !ok {
		return failure.NotFound("application not found")
	}
	delete(f.apps, id)
	return nil
}

type recordingBus struct {
	trace *trace
}

func (b *recordingBus) Publish(ev events.Event) {
	b.trace.add("publish:%s", ev.Topic)
}

type recordingFlags struct {
	trace *trace
	err   error

	mu     sync.Mutex
	values map[string]string
}

func (r *recordingFlags) SetFlag(ctx context.Context, key, value string) error {
	r.trace.add("flag:%s=%s", key, value)
	if r.err != nil {
		return r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.values == nil {
		r.values = make(map[string]string)
	}
	r.values[key] = value
	return nil
}

func (r *recordingFlags) get(key string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.values[key]
}

type recordingNavigator struct {
	trace *trace

	mu   sync.Mutex
	dest []Destination
}

func (n *recordingNavigator) Navigate(dest Destination) {
	n.trace.add("navigate:%s", dest)
	n.mu.Lock()
	defer n.mu.Unlock()
	n.dest = append(n.dest, dest)
}

func (n *recordingNavigator) destinations() []Destination {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Destination(nil), n.dest...)
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *recordingNotifier) Notify(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

func (r *recordingNotifier) last() Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notices) == 0 {
		return Notice{}
	}
	return r.notices[len(r.notices)-1]
}

type harness struct {
	trace    *trace
	client   *fakeClient
	flags    *recordingFlags
	nav      *recordingNavigator
	notifier *recordingNotifier
	coord    *Coordinator
}

func newHarness(isManager bool, apps ...*models.Application) *harness {
	tr := &trace{}
	h := &harness{
		trace:    tr,
		client:   newFakeClient(tr, apps...),
		flags:    &recordingFlags{trace: tr},
		nav:      &recordingNavigator{trace: tr},
		notifier: &recordingNotifier{},
	}
	h.coord = NewCoordinator(Deps{
		Client:    h.client,
		Bus:       &recordingBus{trace: tr},
		Flags:     h.flags,
		Navigator: h.nav,
		Notifier:  h.notifier,
		Session:   Session{IsManager: isManager},
		OnPhase: func(pc PhaseChange) {
			tr.add("phase:%s:%s:%s", pc.Kind, pc.AppID, pc.Phase)
		},
	})
	return h
}

func testApp(id, name string, mode models.Mode) *models.Application {
	return &models.Application{
		ID:             id,
		Name:           name,
		Description:    "test application",
		Icon:           "robot",
		IconBackground: "#FFEAD5",
		Mode:           mode,
		Site: models.SiteConfig{
			Title:           name,
			DefaultLanguage: "en-US",
		},
	}
}
