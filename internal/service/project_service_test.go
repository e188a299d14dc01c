package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"deco-front-go/internal/model"
)

// fakeProjectRepo 是 ProjectRepository 的内存实现。
type fakeProjectRepo struct {
	mu        sync.Mutex
	snapshots map[string][]model.Project
	saves     int
}

func newFakeProjectRepo() *fakeProjectRepo {
	return &fakeProjectRepo{snapshots: make(map[string][]model.Project)}
}

func (f *fakeProjectRepo) LoadSnapshot(clientKey string) ([]model.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Project(nil), f.snapshots[clientKey]...), nil
}

func (f *fakeProjectRepo) SaveSnapshot(clientKey string, projects []model.Project) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	f.snapshots[clientKey] = append([]model.Project(nil), projects...)
	return nil
}

// fakeProjectRemote 是 ProjectRemote 的假实现。
type fakeProjectRemote struct {
	remote   []model.Project
	getErr   error
	saveErr  error
	pushed   [][]model.Project
	getCalls int
}

func (f *fakeProjectRemote) GetProjects(ctx context.Context, token string) ([]model.Project, error) {
	f.getCalls++
	return f.remote, f.getErr
}

func (f *fakeProjectRemote) SaveProjects(ctx context.Context, projects []model.Project, token string) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.pushed = append(f.pushed, projects)
	return nil
}

func TestProjectCreateNewestFirst(t *testing.T) {
	repo := newFakeProjectRepo()
	svc := NewProjectService(repo, &fakeProjectRemote{})

	first, err := svc.Create(context.Background(), "c1", "", "Гостиная", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	second, err := svc.Create(context.Background(), "c1", "", "Спальня", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if first.ID == second.ID {
		t.Fatal("project ids collide")
	}

	projects, _ := svc.List(context.Background(), "c1", "")
	if len(projects) != 2 {
		t.Fatalf("projects = %d, want 2", len(projects))
	}
	if projects[0].Name != "Спальня" {
		t.Errorf("projects[0] = %q, want newest first", projects[0].Name)
	}
	if projects[0].Items == nil || len(projects[0].Items) != 0 {
		t.Errorf("new project items = %v, want empty", projects[0].Items)
	}
}

func TestProjectAddItemDedupIsNoOp(t *testing.T) {
	repo := newFakeProjectRepo()
	svc := NewProjectService(repo, &fakeProjectRemote{})

	project, _ := svc.Create(context.Background(), "c1", "", "Гостиная", nil)
	if _, err := svc.AddItem(context.Background(), "c1", "", project.ID, model.Product{Slug: "sofa-1"}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	savesBefore := repo.saves

	projects, err := svc.AddItem(context.Background(), "c1", "", project.ID, model.Product{Slug: "sofa-1", Name: "другое имя"})
	if err != nil {
		t.Fatalf("duplicate AddItem: %v", err)
	}
	if len(projects[0].Items) != 1 {
		t.Errorf("items = %d after duplicate add, want 1", len(projects[0].Items))
	}
	if repo.saves != savesBefore {
		t.Errorf("duplicate add persisted a snapshot (%d -> %d saves)", savesBefore, repo.saves)
	}

	// 不同 slug 加到最前（最新在前）
	projects, _ = svc.AddItem(context.Background(), "c1", "", project.ID, model.Product{Slug: "chair-1"})
	if len(projects[0].Items) != 2 {
		t.Errorf("items = %d, want 2", len(projects[0].Items))
	}
	if projects[0].Items[0].Slug != "chair-1" {
		t.Errorf("items[0] = %q, want newest item first", projects[0].Items[0].Slug)
	}
}

func TestProjectCreateWithSeed(t *testing.T) {
	svc := NewProjectService(newFakeProjectRepo(), &fakeProjectRemote{})
	seed := model.Product{Slug: "sofa-1", Name: "Диван"}
	project, err := svc.Create(context.Background(), "c1", "", "Гостиная", &seed)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(project.Items) != 1 || project.Items[0].Slug != "sofa-1" {
		t.Errorf("items = %+v, want the seed item", project.Items)
	}
}

func TestProjectRemoveItem(t *testing.T) {
	svc := NewProjectService(newFakeProjectRepo(), &fakeProjectRemote{})
	project, _ := svc.Create(context.Background(), "c1", "", "Гостиная", nil)
	svc.AddItem(context.Background(), "c1", "", project.ID, model.Product{Slug: "sofa-1"})
	svc.AddItem(context.Background(), "c1", "", project.ID, model.Product{Slug: "chair-1"})

	projects, err := svc.RemoveItem(context.Background(), "c1", "", project.ID, "sofa-1")
	if err != nil {
		t.Fatalf("RemoveItem: %v", err)
	}
	if len(projects[0].Items) != 1 || projects[0].Items[0].Slug != "chair-1" {
		t.Errorf("items = %+v, want only chair-1", projects[0].Items)
	}

	// 不存在的 slug 也视为成功
	if _, err := svc.RemoveItem(context.Background(), "c1", "", project.ID, "missing"); err != nil {
		t.Errorf("RemoveItem missing slug: %v", err)
	}
}

func TestProjectOperationsOnMissingProject(t *testing.T) {
	svc := NewProjectService(newFakeProjectRepo(), &fakeProjectRemote{})
	if _, err := svc.AddItem(context.Background(), "c1", "", "missing", model.Product{Slug: "x"}); !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("AddItem err = %v, want ErrProjectNotFound", err)
	}
	if _, err := svc.Rename(context.Background(), "c1", "", "missing", "имя"); !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("Rename err = %v, want ErrProjectNotFound", err)
	}
	if _, err := svc.Delete(context.Background(), "c1", "", "missing"); !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("Delete err = %v, want ErrProjectNotFound", err)
	}
}

func TestProjectListBootstrapsRemote(t *testing.T) {
	t.Run("远端为空时把本地推上去", func(t *testing.T) {
		repo := newFakeProjectRepo()
		repo.snapshots["c1"] = []model.Project{{ID: "p1", Name: "Гостиная"}}
		remote := &fakeProjectRemote{}
		svc := NewProjectService(repo, remote)

		projects, err := svc.List(context.Background(), "c1", "tok")
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(projects) != 1 || projects[0].ID != "p1" {
			t.Errorf("projects = %+v, want local snapshot", projects)
		}
		if len(remote.pushed) != 1 {
			t.Fatalf("pushed = %d, want local collection bootstrapped once", len(remote.pushed))
		}
	})

	t.Run("远端有数据时覆盖本地", func(t *testing.T) {
		repo := newFakeProjectRepo()
		repo.snapshots["c1"] = []model.Project{{ID: "local", Name: "Старый"}}
		remote := &fakeProjectRemote{remote: []model.Project{{ID: "srv", Name: "Серверный"}}}
		svc := NewProjectService(repo, remote)

		projects, _ := svc.List(context.Background(), "c1", "tok")
		if len(projects) != 1 || projects[0].ID != "srv" {
			t.Errorf("projects = %+v, want remote collection", projects)
		}
		if repo.snapshots["c1"][0].ID != "srv" {
			t.Error("remote collection not written back to local snapshot")
		}
		if len(remote.pushed) != 0 {
			t.Error("remote collection must not be pushed back")
		}
	})

	t.Run("远端不可达时退回本地", func(t *testing.T) {
		repo := newFakeProjectRepo()
		repo.snapshots["c1"] = []model.Project{{ID: "p1"}}
		remote := &fakeProjectRemote{getErr: errors.New("backend down")}
		svc := NewProjectService(repo, remote)

		projects, err := svc.List(context.Background(), "c1", "tok")
		if err != nil || len(projects) != 1 {
			t.Errorf("List = %v, %v; want local fallback", projects, err)
		}
	})

	t.Run("匿名客户端从不触网", func(t *testing.T) {
		remote := &fakeProjectRemote{}
		svc := NewProjectService(newFakeProjectRepo(), remote)
		svc.Create(context.Background(), "c1", "", "Гостиная", nil)
		svc.List(context.Background(), "c1", "")
		if remote.getCalls != 0 || len(remote.pushed) != 0 {
			t.Errorf("anonymous client hit the remote: gets=%d pushes=%d", remote.getCalls, len(remote.pushed))
		}
	})
}

func TestProjectPersistSurvivesRemoteFailure(t *testing.T) {
	repo := newFakeProjectRepo()
	remote := &fakeProjectRemote{saveErr: errors.New("backend down")}
	svc := NewProjectService(repo, remote)

	project, err := svc.Create(context.Background(), "c1", "tok", "Гостиная", nil)
	if err != nil {
		t.Fatalf("Create with failing remote: %v", err)
	}
	if len(repo.snapshots["c1"]) != 1 || repo.snapshots["c1"][0].ID != project.ID {
		t.Error("local snapshot missing after remote push failure")
	}
}

func TestProjectMutationsSerializedPerClient(t *testing.T) {
	repo := newFakeProjectRepo()
	svc := NewProjectService(repo, &fakeProjectRemote{})
	project, err := svc.Create(context.Background(), "c1", "", "Гостиная", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	const workers = 8
	const perWorker = 25
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				slug := fmt.Sprintf("item-%d-%d", w, i)
				if _, err := svc.AddItem(context.Background(), "c1", "", project.ID, model.Product{Slug: slug}); err != nil {
					t.Errorf("AddItem(%s): %v", slug, err)
				}
			}
		}(w)
	}
	wg.Wait()

	projects, err := svc.List(context.Background(), "c1", "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if got := len(projects[0].Items); got != workers*perWorker {
		t.Errorf("items = %d after %d successful AddItem calls, want %d (lost updates)", got, workers*perWorker, workers*perWorker)
	}
}
