package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"deco-front-go/internal/model"
	"deco-front-go/internal/repository"
	"deco-front-go/pkg/log"
)

// ProjectRemote 是项目服务依赖的远端同步能力子集。
type ProjectRemote interface {
	GetProjects(ctx context.Context, token string) ([]model.Project, error)
	SaveProjects(ctx context.Context, projects []model.Project, token string) error
}

// ProjectService 定义了项目（方案看板）集合的操作接口。
//
// 持久策略是本地优先：每次变更先写本地快照（权威副本），再尽力而为地
// 推送远端；远端失败只记录日志，绝不回滚本地写入。
// 快照是整体读-改-写的，同一客户端的操作按键串行化，避免并发请求互相覆盖。
type ProjectService interface {
	List(ctx context.Context, clientKey, token string) ([]model.Project, error)
	Create(ctx context.Context, clientKey, token, name string, seed *model.Product) (model.Project, error)
	Rename(ctx context.Context, clientKey, token, projectID, name string) ([]model.Project, error)
	Delete(ctx context.Context, clientKey, token, projectID string) ([]model.Project, error)
	AddItem(ctx context.Context, clientKey, token, projectID string, item model.Product) ([]model.Project, error)
	RemoveItem(ctx context.Context, clientKey, token, projectID, slug string) ([]model.Project, error)
}

// ErrProjectNotFound 表示目标项目不存在。
var ErrProjectNotFound = fmt.Errorf("project not found")

type projectService struct {
	repo   repository.ProjectRepository
	remote ProjectRemote
	locks  keyedMutex
}

// NewProjectService 创建一个新的 ProjectService 实例。
func NewProjectService(repo repository.ProjectRepository, remote ProjectRemote) ProjectService {
	return &projectService{repo: repo, remote: remote}
}

// List 返回客户端的项目集合，并在带 token 时与远端做一次引导同步：
// 远端有数据则以远端为准覆盖本地；远端为空而本地有数据则把本地推上去。
// 远端不可达时静默退回本地快照。
func (s *projectService) List(ctx context.Context, clientKey, token string) ([]model.Project, error) {
	l := s.locks.get(clientKey)
	l.Lock()
	defer l.Unlock()

	local, err := s.repo.LoadSnapshot(clientKey)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return local, nil
	}

	remoteProjects, err := s.remote.GetProjects(ctx, token)
	if err != nil {
		log.Warnf("获取远端项目失败，使用本地快照: %v", err)
		return local, nil
	}
	if len(remoteProjects) > 0 {
		if err := s.repo.SaveSnapshot(clientKey, remoteProjects); err != nil {
			log.Errorf("写入远端项目到本地快照失败: %v", err)
		}
		return remoteProjects, nil
	}
	if len(local) > 0 {
		// 远端是空的：把本地集合引导上去，方向只有这一个
		s.pushRemote(ctx, token, local)
	}
	return local, nil
}

// Create 新建一个项目并放在集合最前面（最新在前），可附带一件种子商品。
func (s *projectService) Create(ctx context.Context, clientKey, token, name string, seed *model.Product) (model.Project, error) {
	l := s.locks.get(clientKey)
	l.Lock()
	defer l.Unlock()

	projects, err := s.repo.LoadSnapshot(clientKey)
	if err != nil {
		return model.Project{}, err
	}
	project := model.Project{
		ID:    strconv.FormatInt(time.Now().UnixNano(), 10),
		Name:  name,
		Items: []model.Product{},
	}
	if seed != nil {
		project.Items = []model.Product{*seed}
	}
	projects = append([]model.Project{project}, projects...)
	if err := s.persist(ctx, clientKey, token, projects); err != nil {
		return model.Project{}, err
	}
	return project, nil
}

// Rename 修改项目名称。
func (s *projectService) Rename(ctx context.Context, clientKey, token, projectID, name string) ([]model.Project, error) {
	l := s.locks.get(clientKey)
	l.Lock()
	defer l.Unlock()

	projects, err := s.repo.LoadSnapshot(clientKey)
	if err != nil {
		return nil, err
	}
	found := false
	for i := range projects {
		if projects[i].ID == projectID {
			projects[i].Name = name
			found = true
			break
		}
	}
	if !found {
		return nil, ErrProjectNotFound
	}
	if err := s.persist(ctx, clientKey, token, projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// Delete 从集合中移除一个项目。
func (s *projectService) Delete(ctx context.Context, clientKey, token, projectID string) ([]model.Project, error) {
	l := s.locks.get(clientKey)
	l.Lock()
	defer l.Unlock()

	projects, err := s.repo.LoadSnapshot(clientKey)
	if err != nil {
		return nil, err
	}
	kept := projects[:0]
	found := false
	for _, p := range projects {
		if p.ID == projectID {
			found = true
			continue
		}
		kept = append(kept, p)
	}
	if !found {
		return nil, ErrProjectNotFound
	}
	if err := s.persist(ctx, clientKey, token, kept); err != nil {
		return nil, err
	}
	return kept, nil
}

// AddItem 向项目中加入一件商品（最新在前）。
// 项目中已有同 slug 商品时整个操作是幂等空操作：集合不变，也不触发持久化。
func (s *projectService) AddItem(ctx context.Context, clientKey, token, projectID string, item model.Product) ([]model.Project, error) {
	l := s.locks.get(clientKey)
	l.Lock()
	defer l.Unlock()

	projects, err := s.repo.LoadSnapshot(clientKey)
	if err != nil {
		return nil, err
	}
	found := false
	for i := range projects {
		if projects[i].ID != projectID {
			continue
		}
		found = true
		if projects[i].ContainsSlug(item.Slug) {
			return projects, nil
		}
		projects[i].Items = append([]model.Product{item}, projects[i].Items...)
		break
	}
	if !found {
		return nil, ErrProjectNotFound
	}
	if err := s.persist(ctx, clientKey, token, projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// RemoveItem 按 slug 从项目中移除商品。slug 不存在时也视为成功。
func (s *projectService) RemoveItem(ctx context.Context, clientKey, token, projectID, slug string) ([]model.Project, error) {
	l := s.locks.get(clientKey)
	l.Lock()
	defer l.Unlock()

	projects, err := s.repo.LoadSnapshot(clientKey)
	if err != nil {
		return nil, err
	}
	found := false
	for i := range projects {
		if projects[i].ID != projectID {
			continue
		}
		found = true
		kept := projects[i].Items[:0]
		for _, it := range projects[i].Items {
			if it.Slug == slug {
				continue
			}
			kept = append(kept, it)
		}
		projects[i].Items = kept
		break
	}
	if !found {
		return nil, ErrProjectNotFound
	}
	if err := s.persist(ctx, clientKey, token, projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// persist 先写本地快照，再尽力推送远端。
func (s *projectService) persist(ctx context.Context, clientKey, token string, projects []model.Project) error {
	if err := s.repo.SaveSnapshot(clientKey, projects); err != nil {
		return err
	}
	if token != "" {
		s.pushRemote(ctx, token, projects)
	}
	return nil
}

// pushRemote 尽力而为地把集合整体推送到远端，失败只记录日志。
func (s *projectService) pushRemote(ctx context.Context, token string, projects []model.Project) {
	if err := s.remote.SaveProjects(ctx, projects, token); err != nil {
		log.Warnf("同步项目到远端失败: %v", err)
	}
}
