package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"infohub/internal/domain"
)

func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	data, err := c.do(ctx, http.MethodPost, "/auth/login", "", nil, map[string]string{"email": email, "senha": password})
	if err != nil {
		return LoginResult{}, err
	}
	return NormalizeLogin(data)
}

func (c *Client) Me(ctx context.Context, token string) (domain.User, error) {
	data, err := c.do(ctx, http.MethodGet, "/usuarios/me", token, nil, nil)
	if err != nil {
		return domain.User{}, err
	}
	return NormalizeUser(data)
}

// ProductQuery filters the product listing; zero values are omitted.
type ProductQuery struct {
	CategoryID int64
	Search     string
	OnSale     bool
}

func (q ProductQuery) values() url.Values {
	v := url.Values{}
	if q.CategoryID > 0 {
		v.Set("categoria", strconv.FormatInt(q.CategoryID, 10))
	}
	if q.Search != "" {
		v.Set("busca", q.Search)
	}
	if q.OnSale {
		v.Set("promocao", "true")
	}
	return v
}

func (c *Client) Products(ctx context.Context, q ProductQuery) ([]domain.Product, error) {
	data, err := c.do(ctx, http.MethodGet, "/produtos", "", q.values(), nil)
	if err != nil {
		return nil, err
	}
	return NormalizeProducts(data)
}

func (c *Client) Product(ctx context.Context, id int64) (domain.Product, error) {
	data, err := c.do(ctx, http.MethodGet, "/produtos/"+strconv.FormatInt(id, 10), "", nil, nil)
	if err != nil {
		return domain.Product{}, err
	}
	return NormalizeProduct(data)
}

func (c *Client) Categories(ctx context.Context) ([]domain.Category, error) {
	data, err := c.do(ctx, http.MethodGet, "/categorias", "", nil, nil)
	if err != nil {
		return nil, err
	}
	return NormalizeCategories(data)
}

func (c *Client) Favorites(ctx context.Context, token string) ([]domain.Product, error) {
	data, err := c.do(ctx, http.MethodGet, "/favoritos", token, nil, nil)
	if err != nil {
		return nil, err
	}
	return NormalizeProducts(data)
}

func (c *Client) AddFavorite(ctx context.Context, token string, productID int64) error {
	_, err := c.do(ctx, http.MethodPost, "/favoritos", token, nil, map[string]int64{"id_produto": productID})
	return err
}

func (c *Client) RemoveFavorite(ctx context.Context, token string, productID int64) error {
	_, err := c.do(ctx, http.MethodDelete, "/favoritos/"+strconv.FormatInt(productID, 10), token, nil, nil)
	return err
}

// ClearFavorites calls the bulk endpoint. Older backends answer 404 or 405.
func (c *Client) ClearFavorites(ctx context.Context, token string) error {
	_, err := c.do(ctx, http.MethodDelete, "/favoritos", token, nil, nil)
	return err
}

func (c *Client) PointsBalance(ctx context.Context, token string) (int, error) {
	data, err := c.do(ctx, http.MethodGet, "/pontos/saldo", token, nil, nil)
	if err != nil {
		return 0, err
	}
	return NormalizeBalance(data)
}

func (c *Client) PointsHistory(ctx context.Context, token string) ([]domain.PointsTransaction, error) {
	data, err := c.do(ctx, http.MethodGet, "/pontos/historico", token, nil, nil)
	if err != nil {
		return nil, err
	}
	return NormalizeTransactions(data)
}

func (c *Client) Ranking(ctx context.Context, limit int) ([]domain.RankingEntry, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limite", strconv.Itoa(limit))
	}
	data, err := c.do(ctx, http.MethodGet, "/pontos/ranking", "", q, nil)
	if err != nil {
		return nil, err
	}
	return NormalizeRanking(data)
}

func (c *Client) Posts(ctx context.Context, token string) ([]domain.Post, error) {
	data, err := c.do(ctx, http.MethodGet, "/posts", token, nil, nil)
	if err != nil {
		return nil, err
	}
	return NormalizePosts(data)
}

func (c *Client) CreatePost(ctx context.Context, token, content, image string) (domain.Post, error) {
	body := map[string]string{"conteudo": content}
	if image != "" {
		body["imagem"] = image
	}
	data, err := c.do(ctx, http.MethodPost, "/posts", token, nil, body)
	if err != nil {
		return domain.Post{}, err
	}
	return NormalizePost(data)
}

func (c *Client) LikePost(ctx context.Context, token string, postID int64) (LikeResult, error) {
	data, err := c.do(ctx, http.MethodPost, "/posts/"+strconv.FormatInt(postID, 10)+"/curtir", token, nil, nil)
	if err != nil {
		return LikeResult{}, err
	}
	return NormalizeLike(data)
}

func (c *Client) Comments(ctx context.Context, postID int64) ([]domain.Comment, error) {
	data, err := c.do(ctx, http.MethodGet, "/posts/"+strconv.FormatInt(postID, 10)+"/comentarios", "", nil, nil)
	if err != nil {
		return nil, err
	}
	return NormalizeComments(data)
}

func (c *Client) AddComment(ctx context.Context, token string, postID int64, content string) (domain.Comment, error) {
	path := "/posts/" + strconv.FormatInt(postID, 10) + "/comentarios"
	data, err := c.do(ctx, http.MethodPost, path, token, nil, map[string]string{"conteudo": content})
	if err != nil {
		return domain.Comment{}, err
	}
	cm, err := NormalizeComment(data)
	if err != nil {
		return domain.Comment{}, err
	}
	if cm.PostID == 0 {
		cm.PostID = postID
	}
	return cm, nil
}
