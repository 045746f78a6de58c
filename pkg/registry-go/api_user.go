package registry_go

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"

	"registry-console/pkg/registry-go/model"
)

// Login exchanges a username and password for a token pair. Empty arguments
// fall back to the credentials in Config.
func (c *RestClient) Login(ctx context.Context, username, password string) (*model.TokenPair, error) {
	if username == "" {
		username, password = c.client.user, c.client.password
	}
	if username == "" {
		return nil, NewRegistryError(ErrorInvalid, "username is required")
	}
	cred := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
	return c.login(ctx, "Basic "+cred)
}

// RefreshToken exchanges a refresh token for a new pair. The login endpoint
// tells both flows apart by the credential it receives.
func (c *RestClient) RefreshToken(ctx context.Context, refreshToken string) (*model.TokenPair, error) {
	if refreshToken == "" {
		return nil, NewRegistryError(ErrorUnauthorized, "no refresh token stored")
	}
	return c.login(ctx, "Bearer "+refreshToken)
}

func (c *RestClient) login(ctx context.Context, authorization string) (*model.TokenPair, error) {
	req := RequestForm{
		Method:  http.MethodPost,
		Path:    loginPath,
		Headers: map[string]string{"Authorization": authorization},
	}

	res, err := c.client.Submit(ctx, req)
	if err != nil {
		return nil, err
	}
	pair := &model.TokenPair{}
	if err := decode(res, pair, http.StatusOK); err != nil {
		return nil, err
	}
	return pair, nil
}

func (c *RestClient) Logout(ctx context.Context, tokens ...string) error {
	req := RequestForm{
		Method:  http.MethodPost,
		Path:    "users/logout",
		Payload: map[string]interface{}{"tokens": tokens},
	}

	res, err := c.client.Submit(ctx, req)
	if err != nil {
		return err
	}
	return decode(res, nil, http.StatusNoContent, http.StatusOK)
}

func (c *RestClient) Self(ctx context.Context) (*model.User, error) {
	req := RequestForm{
		Method: http.MethodGet,
		Path:   "users/self",
	}

	res, err := c.client.Submit(ctx, req)
	if err != nil {
		return nil, err
	}
	u := &model.User{}
	if err := decode(res, u, http.StatusOK); err != nil {
		return nil, err
	}
	return u, nil
}

func (c *RestClient) ListUsers(ctx context.Context, p model.Pagination) (*model.UserList, error) {
	req := RequestForm{
		Method: http.MethodGet,
		Path:   "users/",
		Params: p.Values(),
	}

	res, err := c.client.Submit(ctx, req)
	if err != nil {
		return nil, err
	}
	list := &model.UserList{}
	if err := decode(res, list, http.StatusOK); err != nil {
		return nil, err
	}
	return list, nil
}

// FindUser looks a user up by exact username.
func (c *RestClient) FindUser(ctx context.Context, username string) (*model.User, error) {
	u, ok, err := findByName(ctx, username,
		func(ctx context.Context, p model.Pagination) ([]model.User, int64, error) {
			list, err := c.ListUsers(ctx, p)
			if err != nil {
				return nil, 0, err
			}
			return list.Items, list.Total, nil
		},
		func(u *model.User) bool { return u.Username == username })
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, NewRegistryError(ErrorNotFound, fmt.Sprintf("user %q not found", username))
	}
	return u, nil
}

func (c *RestClient) CreateUser(ctx context.Context, form model.UserForm) (int64, error) {
	req := RequestForm{
		Method:  http.MethodPost,
		Path:    "users/",
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

func (c *RestClient) UpdateUser(ctx context.Context, id int64, form model.UserUpdateForm) error {
	req := RequestForm{
		Method:  http.MethodPut,
		Path:    fmt.Sprintf("users/%d", id),
		Payload: form,
	}

	res, err := c.client.Submit(ctx, req)
	if err != nil {
		return err
	}
	return decode(res, nil, http.StatusNoContent, http.StatusOK)
}

func (c *RestClient) DeleteUser(ctx context.Context, id int64) error {
	req := RequestForm{
		Method: http.MethodDelete,
		Path:   fmt.Sprintf("users/%d", id),
	}

	res, err := c.client.Submit(ctx, req)
	if err != nil {
		return err
	}
	return decode(res, nil, http.StatusNoContent, http.StatusOK)
}
