package registry_go

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"registry-console/pkg/registry-go/model"
)

func (c *RestClient) ListNamespaces(ctx context.Context, p model.Pagination) (*model.NamespaceList, error) {
	req := RequestForm{
		Method: http.MethodGet,
		Path:   "namespaces/",
		Params: p.Values(),
	}

	res, err := c.client.Submit(ctx, req)
	if err != nil {
		return nil, err
	}
	list := &model.NamespaceList{}
	if err := decode(res, list, http.StatusOK); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *RestClient) GetNamespace(ctx context.Context, id int64) (*model.Namespace, error) {
	req := RequestForm{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("namespaces/%d", id),
	}

	res, err := c.client.Submit(ctx, req)
	if err != nil {
		return nil, err
	}
	ns := &model.Namespace{}
	if err := decode(res, ns, http.StatusOK); err != nil {
		return nil, err
	}
	return ns, nil
}

const findPageSize = 100

// findByName walks the pages of a name filtered listing. The server filter
// matches substrings, so the exact match may be on any page.
func findByName[T any](ctx context.Context, name string,
	list func(context.Context, model.Pagination) ([]T, int64, error), match func(*T) bool) (*T, bool, error) {
	for page := 1; ; page++ {
		items, total, err := list(ctx, model.Pagination{Name: name, Page: page, Limit: findPageSize})
		if err != nil {
			return nil, false, err
		}
		for i := range items {
			if match(&items[i]) {
				return &items[i], true, nil
			}
		}
		if len(items) == 0 || int64(page*findPageSize) >= total {
			return nil, false, nil
		}
	}
}

// FindNamespace looks a namespace up by exact name.
func (c *RestClient) FindNamespace(ctx context.Context, name string) (*model.Namespace, error) {
	ns, ok, err := findByName(ctx, name,
		func(ctx context.Context, p model.Pagination) ([]model.Namespace, int64, error) {
			list, err := c.ListNamespaces(ctx, p)
			if err != nil {
				return nil, 0, err
			}
			return list.Items, list.Total, nil
		},
		func(ns *model.Namespace) bool { return ns.Name == name })
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, NewRegistryError(ErrorNotFound, fmt.Sprintf("namespace %q not found", name))
	}
	return ns, nil
}

func (c *RestClient) CreateNamespace(ctx context.Context, form model.NamespaceForm) (int64, error) {
	req := RequestForm{
		Method:  http.MethodPost,
		Path:    "namespaces/",
		Payload: form,
	}

	res, err := c.client.Submit(ctx, req)
	if err != nil {
		return 0, err
	}
	created := model.CreatedId{}
	if err := decode(res, &created, http.StatusCreated); err != nil {
		return 0, err
	}
	return created.Id, nil
}

func (c *RestClient) UpdateNamespace(ctx context.Context, id int64, form model.NamespaceForm) error {
	req := RequestForm{
		Method:  http.MethodPut,
		Path:    fmt.Sprintf("namespaces/%d", id),
		Payload: form,
	}

	res, err := c.client.Submit(ctx, req)
	if err != nil {
		return err
	}
	return decode(res, nil, http.StatusNoContent, http.StatusOK)
}

func (c *RestClient) DeleteNamespace(ctx context.Context, id int64) error {
	req := RequestForm{
		Method: http.MethodDelete,
		Path:   fmt.Sprintf("namespaces/%d", id),
	}

	res, err := c.client.Submit(ctx, req)
	if err != nil {
		return err
	}
	return decode(res, nil, http.StatusNoContent, http.StatusOK)
}

func (c *RestClient) ListRepositories(ctx context.Context, namespace string, p model.Pagination) (*model.RepositoryList, error) {
	req := RequestForm{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("namespaces/%s/repositories/", url.PathEscape(namespace)),
		Params: p.Values(),
	}

	res, err := c.client.Submit(ctx, req)
	if err != nil {
		return nil, err
	}
	list := &model.RepositoryList{}
	if err := decode(res, list, http.StatusOK); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *RestClient) GetRepository(ctx context.Context, namespace string, id int64) (*model.Repository, error) {
	req := RequestForm{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("namespaces/%s/repositories/%d", url.PathEscape(namespace), id),
	}

	res, err := c.client.Submit(ctx, req)
	if err != nil {
		return nil, err
	}
	repo := &model.Repository{}
	if err := decode(res, repo, http.StatusOK); err != nil {
		return nil, err
	}
	return repo, nil
}

// FindRepository looks a repository up by its full name, e.g. "library/busybox".
func (c *RestClient) FindRepository(ctx context.Context, namespace, name string) (*model.Repository, error) {
	repo, ok, err := findByName(ctx, name,
		func(ctx context.Context, p model.Pagination) ([]model.Repository, int64, error) {
			list, err := c.ListRepositories(ctx, namespace, p)
			if err != nil {
				return nil, 0, err
			}
			return list.Items, list.Total, nil
		},
		func(r *model.Repository) bool { return r.Name == name })
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, NewRegistryError(ErrorNotFound, fmt.Sprintf("repository %q not found", name))
	}
	return repo, nil
}

func (c *RestClient) CreateRepository(ctx context.Context, namespace string, form model.RepositoryForm) (int64, error) {
	req := RequestForm{
		Method:  http.MethodPost,
		Path:    fmt.Sprintf("namespaces/%s/repositories/", url.PathEscape(namespace)),
		Payload: form,
	}

	res, err := c.client.Submit(ctx, req)
	if err != nil {
		return 0, err
	}
	created := model.CreatedId{}
	if err := decode(res, &created, http.StatusCreated); err != nil {
		return 0, err
	}
	return created.Id, nil
}

func (c *RestClient) UpdateRepository(ctx context.Context, namespace string, id int64, form model.RepositoryForm) error {
	req := RequestForm{
		Method:  http.MethodPut,
		Path:    fmt.Sprintf("namespaces/%s/repositories/%d", url.PathEscape(namespace), id),
		Payload: form,
	}

	res, err := c.client.Submit(ctx, req)
	if err != nil {
		return err
	}
	return decode(res, nil, http.StatusNoContent, http.StatusOK)
}

func (c *RestClient) DeleteRepository(ctx context.Context, namespace string, id int64) error {
	req := RequestForm{
		Method: http.MethodDelete,
		Path:   fmt.Sprintf("namespaces/%s/repositories/%d", url.PathEscape(namespace), id),
	}

	res, err := c.client.Submit(ctx, req)
	if err != nil {
		return err
	}
	return decode(res, nil, http.StatusNoContent, http.StatusOK)
}

func (c *RestClient) ListTags(ctx context.Context, namespace, repository string, p model.Pagination) (*model.TagList, error) {
	params := p.Values()
	params.Set("repository", repository)
	req := RequestForm{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("namespaces/%s/tags/", url.PathEscape(namespace)),
		Params: params,
	}

	res, err := c.client.Submit(ctx, req)
	if err != nil {
		return nil, err
	}
	list := &model.TagList{}
	if err := decode(res, list, http.StatusOK); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *RestClient) FindTag(ctx context.Context, namespace, repository, name string) (*model.Tag, error) {
	tag, ok, err := findByName(ctx, name,
		func(ctx context.Context, p model.Pagination) ([]model.Tag, int64, error) {
			list, err := c.ListTags(ctx, namespace, repository, p)
			if err != nil {
				return nil, 0, err
			}
			return list.Items, list.Total, nil
		},
		func(t *model.Tag) bool { return t.Name == name })
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, NewRegistryError(ErrorNotFound, fmt.Sprintf("tag %q not found in %s", name, repository))
	}
	return tag, nil
}

func (c *RestClient) DeleteTag(ctx context.Context, namespace string, id int64) error {
	req := RequestForm{
		Method: http.MethodDelete,
		Path:   fmt.Sprintf("namespaces/%s/tags/%s", url.PathEscape(namespace), strconv.FormatInt(id, 10)),
	}

	res, err := c.client.Submit(ctx, req)
	if err != nil {
		return err
	}
	return decode(res, nil, http.StatusNoContent, http.StatusOK)
}

func (c *RestClient) ListArtifacts(ctx context.Context, namespace, repository string, p model.Pagination) (*model.ArtifactList, error) {
	params := p.Values()
	params.Set("repository", repository)
	req := RequestForm{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("namespaces/%s/artifacts/", url.PathEscape(namespace)),
		Params: params,
	}

	res, err := c.client.Submit(ctx, req)
	if err != nil {
		return nil, err
	}
	list := &model.ArtifactList{}
	if err := decode(res, list, http.StatusOK); err != nil {
		return nil, err
	}
	return list, nil
}
