package registry_go

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"registry-console/pkg/registry-go/model"
)

func (c *RestClient) ListWebhooks(ctx context.Context, namespaceId int64, p model.Pagination) (*model.WebhookList, error) {
	params := p.Values()
	if namespaceId > 0 {
		params.Set("namespace_id", fmt.Sprint(namespaceId))
	}
	req := RequestForm{
		Method: http.MethodGet,
		Path:   "webhooks/",
		Params: params,
	}

	res, err := c.client.Submit(ctx, req)
	if err != nil {
		return nil, err
	}
	list := &model.WebhookList{}
	if err := decode(res, list, http.StatusOK); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *RestClient) CreateWebhook(ctx context.Context, namespaceId int64, form model.WebhookForm) (int64, error) {
	params := url.Values{}
	if namespaceId > 0 {
		params.Set("namespace_id", fmt.Sprint(namespaceId))
	}
	req := RequestForm{
		Method:  http.MethodPost,
		Path:    "webhooks/",
		Params:  params,
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

func (c *RestClient) DeleteWebhook(ctx context.Context, id int64) error {
	req := RequestForm{
		Method: http.MethodDelete,
		Path:   fmt.Sprintf("webhooks/%d", id),
	}

	res, err := c.client.Submit(ctx, req)
	if err != nil {
		return err
	}
	return decode(res, nil, http.StatusNoContent, http.StatusOK)
}

func (c *RestClient) GetEndpoint(ctx context.Context) (string, error) {
	req := RequestForm{
		Method: http.MethodGet,
		Path:   "systems/endpoint",
	}

	res, err := c.client.Submit(ctx, req)
	if err != nil {
		return "", err
	}
	e := model.Endpoint{}
	if err := decode(res, &e, http.StatusOK); err != nil {
		return "", err
	}
	return e.Endpoint, nil
}

// ValidatePassword asks the server whether pw satisfies its password policy.
// A policy violation comes back as an ErrorBadRequest carrying the reason.
func (c *RestClient) ValidatePassword(ctx context.Context, pw string) error {
	return c.validate(ctx, "validators/password", url.Values{"password": {pw}})
}

func (c *RestClient) ValidateReference(ctx context.Context, reference string) error {
	return c.validate(ctx, "validators/reference", url.Values{"reference": {reference}})
}

func (c *RestClient) validate(ctx context.Context, path string, params url.Values) error {
	req := RequestForm{
		Method: http.MethodGet,
		Path:   path,
		Params: params,
	}

	res, err := c.client.Submit(ctx, req)
	if err != nil {
		return err
	}
	return decode(res, nil, http.StatusNoContent, http.StatusOK)
}
