package httpserver

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"infohub/internal/address"
	"infohub/internal/backend"
	"infohub/internal/domain"
	"infohub/internal/localstore"
	"infohub/internal/service/points"
	"infohub/internal/service/session"
)

type SessionService interface {
	Open(ctx context.Context) (*session.Session, error)
	Get(ctx context.Context, id string) (*session.Session, error)
	Login(ctx context.Context, sess *session.Session, email, password string) (domain.User, error)
	Logout(ctx context.Context, sess *session.Session) error
	Token(ctx context.Context, sess *session.Session) string
	User(ctx context.Context, sess *session.Session) (domain.User, error)
	RefreshUser(ctx context.Context, sess *session.Session) (domain.User, error)
	SetEstablishment(ctx context.Context, sess *session.Session, est domain.Establishment) error
	Establishment(ctx context.Context, sess *session.Session) (domain.Establishment, error)
}

type AddressService interface {
	Resolve(ctx context.Context, rawPostalCode string) (*domain.Address, error)
	Save(ctx context.Context, store localstore.Store, form address.Form) (*domain.Address, error)
}

type CatalogService interface {
	Products(ctx context.Context, q backend.ProductQuery) []domain.Product
	Promotions(ctx context.Context) []domain.Product
	Product(ctx context.Context, id int64) (domain.Product, error)
	Categories(ctx context.Context) []domain.Category
}

type PointsService interface {
	Balance(ctx context.Context, token string) points.Balance
	History(ctx context.Context, token string) []domain.PointsTransaction
	Ranking(ctx context.Context, limit int) []domain.RankingEntry
	Summary(ctx context.Context, token string) points.Summary
	Dashboard(ctx context.Context, token string, rankingLimit int) points.Dashboard
}

type FeedService interface {
	List(ctx context.Context, token string) []domain.Post
	Comments(ctx context.Context, postID int64) []domain.Comment
	Create(ctx context.Context, token, content, image string) (domain.Post, error)
	Like(ctx context.Context, token string, postID int64) (backend.LikeResult, error)
	Comment(ctx context.Context, token string, postID int64, content string) (domain.Comment, error)
}

// Deps groups the services the router exposes.
type Deps struct {
	Sessions SessionService
	Address  AddressService
	Catalog  CatalogService
	Points   PointsService
	Feed     FeedService

	CORSOrigins []string
	// ReadyChecks run on /readyz next to the database ping.
	ReadyChecks []func(context.Context) error
}

func (d Deps) validate() error {
	switch {
	case d.Sessions == nil:
		return errors.New("session service required")
	case d.Address == nil:
		return errors.New("address service required")
	case d.Catalog == nil:
		return errors.New("catalog service required")
	case d.Points == nil:
		return errors.New("points service required")
	case d.Feed == nil:
		return errors.New("feed service required")
	}
	return nil
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, pool *pgxpool.Pool, deps Deps) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())
	router.Use(cors.New(corsConfig(deps.CORSOrigins)))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(pool, deps.ReadyChecks...))

	h := &handlers{deps: deps, logger: logger}
	api := router.Group("/api", sessionMiddleware(deps.Sessions))

	api.GET("/cep/:cep", h.lookupPostalCode)
	api.GET("/endereco", h.getAddress)
	api.PUT("/endereco", h.saveAddress)
	api.DELETE("/endereco", h.removeAddress)

	api.POST("/auth/login", h.login)
	api.POST("/auth/logout", h.logout)
	api.GET("/me", h.me)
	api.GET("/estabelecimento", h.getEstablishment)
	api.PUT("/estabelecimento", h.setEstablishment)

	api.GET("/produtos", h.listProducts)
	api.GET("/produtos/:id", h.getProduct)
	api.GET("/promocoes", h.listPromotions)
	api.GET("/categorias", h.listCategories)

	api.GET("/favoritos", h.listFavorites)
	api.DELETE("/favoritos", h.clearFavorites)
	api.GET("/favoritos/:id", h.favoriteStatus)
	api.PUT("/favoritos/:id", h.addFavorite)
	api.DELETE("/favoritos/:id", h.removeFavorite)
	api.POST("/favoritos/:id/toggle", h.toggleFavorite)

	api.GET("/carrinho", h.getCart)
	api.DELETE("/carrinho", h.clearCart)
	api.POST("/carrinho/itens", h.addCartItem)
	api.PATCH("/carrinho/itens/:id", h.updateCartItem)
	api.DELETE("/carrinho/itens/:id", h.removeCartItem)
	api.POST("/carrinho/acoes", h.applyCartActions)

	api.GET("/pontos", h.pointsDashboard)
	api.GET("/pontos/saldo", h.pointsBalance)
	api.GET("/pontos/historico", h.pointsHistory)
	api.GET("/pontos/resumo", h.pointsSummary)
	api.GET("/pontos/ranking", h.pointsRanking)
	api.GET("/pontos/nivel", h.pointsTier)

	api.GET("/posts", h.listPosts)
	api.POST("/posts", h.createPost)
	api.POST("/posts/:id/curtir", h.likePost)
	api.GET("/posts/:id/comentarios", h.listComments)
	api.POST("/posts/:id/comentarios", h.addComment)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, envelope{Status: false, Message: "route not found"})
	})

	return router, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", sessionHeader},
		ExposeHeaders:    []string{sessionHeader},
		MaxAge:           12 * time.Hour,
		AllowCredentials: false,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
