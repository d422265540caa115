package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"infohub/internal/domain"
)

// The backend names the same field differently across endpoints (id, id_post, id_comentario,
// nome/name, preco/price...). Everything past this file only sees domain types.

type fields map[string]json.RawMessage

func decodeFields(raw json.RawMessage) (fields, error) {
	var f fields
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("%w: expected object: %v", domain.ErrBackendUnavailable, err)
	}
	return f, nil
}

func (f fields) first(keys ...string) (json.RawMessage, bool) {
	for _, k := range keys {
		if v, ok := f[k]; ok && !isNull(v) {
			return v, true
		}
	}
	return nil, false
}

func (f fields) str(keys ...string) string {
	v, ok := f.first(keys...)
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return strings.TrimSpace(s)
	}
	// numbers rendered as text
	return strings.Trim(string(v), `"`)
}

func (f fields) int64(keys ...string) int64 {
	v, ok := f.first(keys...)
	if !ok {
		return 0
	}
	s := strings.Trim(string(v), `" `)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if fl, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(fl)
	}
	return 0
}

func (f fields) int(keys ...string) int {
	return int(f.int64(keys...))
}

func (f fields) bool(keys ...string) bool {
	v, ok := f.first(keys...)
	if !ok {
		return false
	}
	switch strings.ToLower(strings.Trim(string(v), `" `)) {
	case "true", "1", "sim":
		return true
	}
	return false
}

func (f fields) decimal(keys ...string) (decimal.Decimal, bool) {
	v, ok := f.first(keys...)
	if !ok {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.Trim(string(v), `" `), ",", "."))
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"}

func (f fields) time(keys ...string) time.Time {
	s := f.str(keys...)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func isNull(v json.RawMessage) bool {
	return len(bytes.TrimSpace(v)) == 0 || string(bytes.TrimSpace(v)) == "null"
}

// listOf accepts a bare array or an object wrapping one under any of keys.
func listOf(raw json.RawMessage, keys ...string) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if isNull(trimmed) {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("%w: decode list: %v", domain.ErrBackendUnavailable, err)
		}
		return items, nil
	}
	f, err := decodeFields(trimmed)
	if err != nil {
		return nil, err
	}
	if inner, ok := f.first(keys...); ok {
		return listOf(inner, keys...)
	}
	return nil, nil
}

func normalizeList[T any](raw json.RawMessage, fn func(json.RawMessage) (T, error), keys ...string) ([]T, error) {
	items, err := listOf(raw, keys...)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		v, err := fn(item)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// NormalizeProduct maps product and favorite rows. Favorite rows may nest the product under produto.
func NormalizeProduct(raw json.RawMessage) (domain.Product, error) {
	f, err := decodeFields(raw)
	if err != nil {
		return domain.Product{}, err
	}
	if nested, ok := f.first("produto", "product"); ok && bytes.HasPrefix(bytes.TrimSpace(nested), []byte("{")) {
		return NormalizeProduct(nested)
	}

	p := domain.Product{
		ID:          f.int64("id_produto", "produto_id", "productId", "id"),
		Name:        f.str("nome", "name", "titulo", "nome_produto"),
		Image:       f.str("imagem", "image", "img", "url_imagem"),
		Description: f.str("descricao", "description"),
	}
	p.Price, _ = f.decimal("preco", "price", "valor", "preco_promocional")
	if old, ok := f.decimal("preco_antigo", "oldPrice", "old_price", "preco_original"); ok {
		p.OldPrice = &old
	}
	if cat, ok := f.first("categoria", "category"); ok && bytes.HasPrefix(bytes.TrimSpace(cat), []byte("{")) {
		if cf, err := decodeFields(cat); err == nil {
			p.Category = cf.str("nome", "name")
		}
	} else {
		p.Category = f.str("categoria", "category", "nome_categoria")
	}
	return p, nil
}

func NormalizeProducts(raw json.RawMessage) ([]domain.Product, error) {
	return normalizeList(raw, NormalizeProduct, "produtos", "products", "favoritos", "favorites", "items")
}

func NormalizeCategory(raw json.RawMessage) (domain.Category, error) {
	f, err := decodeFields(raw)
	if err != nil {
		return domain.Category{}, err
	}
	return domain.Category{
		ID:    f.int64("id_categoria", "id"),
		Name:  f.str("nome", "name"),
		Image: f.str("imagem", "image", "icone", "icon"),
	}, nil
}

func NormalizeCategories(raw json.RawMessage) ([]domain.Category, error) {
	return normalizeList(raw, NormalizeCategory, "categorias", "categories", "items")
}

func NormalizeUser(raw json.RawMessage) (domain.User, error) {
	f, err := decodeFields(raw)
	if err != nil {
		return domain.User{}, err
	}
	return domain.User{
		ID:     f.int64("id_usuario", "usuario_id", "userId", "id"),
		Name:   f.str("nome", "name", "nome_completo"),
		Email:  f.str("email"),
		Points: f.int("pontos", "points", "saldo_pontos", "saldo"),
	}, nil
}

// LoginResult is the token and profile returned by a successful sign-in.
type LoginResult struct {
	Token string
	User  domain.User
}

func NormalizeLogin(raw json.RawMessage) (LoginResult, error) {
	f, err := decodeFields(raw)
	if err != nil {
		return LoginResult{}, err
	}
	res := LoginResult{Token: f.str("token", "access_token", "accessToken")}
	if res.Token == "" {
		return LoginResult{}, fmt.Errorf("%w: login response without token", domain.ErrBackendUnavailable)
	}
	if u, ok := f.first("usuario", "user"); ok {
		if res.User, err = NormalizeUser(u); err != nil {
			return LoginResult{}, err
		}
	} else {
		// some deployments flatten the profile next to the token
		res.User, _ = NormalizeUser(raw)
	}
	return res, nil
}

// NormalizeBalance accepts a bare number or an object carrying the balance.
func NormalizeBalance(raw json.RawMessage) (int, error) {
	trimmed := bytes.TrimSpace(raw)
	if isNull(trimmed) {
		return 0, nil
	}
	if trimmed[0] != '{' {
		return fields{"v": trimmed}.int("v"), nil
	}
	f, err := decodeFields(trimmed)
	if err != nil {
		return 0, err
	}
	return f.int("saldo", "pontos", "points", "balance", "total"), nil
}

func NormalizeTransaction(raw json.RawMessage) (domain.PointsTransaction, error) {
	f, err := decodeFields(raw)
	if err != nil {
		return domain.PointsTransaction{}, err
	}
	return domain.PointsTransaction{
		ID:          f.int64("id_transacao", "id_historico", "id"),
		ActionType:  f.str("tipo_acao", "actionType", "action_type", "tipo"),
		Points:      f.int("pontos", "points", "quantidade"),
		Description: f.str("descricao", "description"),
		Timestamp:   f.time("data", "timestamp", "created_at", "data_criacao", "createdAt"),
	}, nil
}

func NormalizeTransactions(raw json.RawMessage) ([]domain.PointsTransaction, error) {
	return normalizeList(raw, NormalizeTransaction, "historico", "history", "transacoes", "items")
}

// NormalizeRankingEntry leaves Tier empty when the backend omits it.
func NormalizeRankingEntry(raw json.RawMessage) (domain.RankingEntry, error) {
	f, err := decodeFields(raw)
	if err != nil {
		return domain.RankingEntry{}, err
	}
	return domain.RankingEntry{
		Position: f.int("posicao", "position", "rank"),
		UserID:   f.int64("id_usuario", "userId", "user_id", "id"),
		Name:     f.str("nome", "name", "nome_usuario"),
		Points:   f.int("pontos", "points", "total_pontos"),
		Tier:     f.str("nivel", "tier"),
	}, nil
}

func NormalizeRanking(raw json.RawMessage) ([]domain.RankingEntry, error) {
	entries, err := normalizeList(raw, NormalizeRankingEntry, "ranking", "items")
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].Position == 0 {
			entries[i].Position = i + 1
		}
	}
	return entries, nil
}

func NormalizePost(raw json.RawMessage) (domain.Post, error) {
	f, err := decodeFields(raw)
	if err != nil {
		return domain.Post{}, err
	}
	p := domain.Post{
		ID:         f.int64("id_post", "post_id", "postId", "id"),
		AuthorID:   f.int64("id_usuario", "authorId", "autor_id", "user_id"),
		AuthorName: f.str("nome_usuario", "authorName", "autor", "nome"),
		Content:    f.str("conteudo", "content", "texto"),
		Image:      f.str("imagem", "image"),
		Likes:      f.int("curtidas", "likes", "total_curtidas"),
		LikedByMe:  f.bool("curtido", "likedByMe", "liked", "curtido_por_mim"),
		CreatedAt:  f.time("data_criacao", "createdAt", "created_at", "data"),
	}
	// comentarios is either a count or the embedded list
	if c, ok := f.first("comentarios", "comments"); ok && bytes.HasPrefix(bytes.TrimSpace(c), []byte("[")) {
		var list []json.RawMessage
		if err := json.Unmarshal(c, &list); err == nil {
			p.CommentCount = len(list)
		}
	} else {
		p.CommentCount = f.int("total_comentarios", "commentCount", "comentarios", "comments")
	}
	return p, nil
}

func NormalizePosts(raw json.RawMessage) ([]domain.Post, error) {
	return normalizeList(raw, NormalizePost, "posts", "items")
}

func NormalizeComment(raw json.RawMessage) (domain.Comment, error) {
	f, err := decodeFields(raw)
	if err != nil {
		return domain.Comment{}, err
	}
	return domain.Comment{
		ID:         f.int64("id_comentario", "comment_id", "commentId", "id"),
		PostID:     f.int64("id_post", "post_id", "postId"),
		AuthorID:   f.int64("id_usuario", "authorId", "autor_id", "user_id"),
		AuthorName: f.str("nome_usuario", "authorName", "autor", "nome"),
		Content:    f.str("conteudo", "content", "texto", "comentario"),
		CreatedAt:  f.time("data_criacao", "createdAt", "created_at", "data"),
	}, nil
}

func NormalizeComments(raw json.RawMessage) ([]domain.Comment, error) {
	return normalizeList(raw, NormalizeComment, "comentarios", "comments", "items")
}

// LikeResult is the post like state after a like toggle.
type LikeResult struct {
	Liked bool `json:"liked"`
	Likes int  `json:"likes"`
}

func NormalizeLike(raw json.RawMessage) (LikeResult, error) {
	if isNull(raw) {
		return LikeResult{Liked: true}, nil
	}
	f, err := decodeFields(raw)
	if err != nil {
		return LikeResult{}, err
	}
	res := LikeResult{Liked: true, Likes: f.int("curtidas", "likes", "total_curtidas")}
	if _, ok := f.first("curtido", "liked", "acao", "action"); ok {
		res.Liked = f.bool("curtido", "liked") || strings.EqualFold(f.str("acao", "action"), "curtiu") ||
			strings.EqualFold(f.str("acao", "action"), "liked")
	}
	return res, nil
}
