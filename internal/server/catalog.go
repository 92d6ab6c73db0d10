package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	catalogdomain "github.com/smallbiznis/folio/internal/catalog/domain"
)

func (s *Server) CreateUser(c *gin.Context) {
	var req catalogdomain.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	user, err := s.catalogSvc.CreateUser(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": user})
}

func (s *Server) GetUser(c *gin.Context) {
	user, err := s.catalogSvc.GetUser(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": user})
}

func (s *Server) CreateAuthor(c *gin.Context) {
	var req catalogdomain.CreateAuthorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	author, err := s.catalogSvc.CreateAuthor(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": author})
}

func (s *Server) GetAuthor(c *gin.Context) {
	author, err := s.catalogSvc.GetAuthor(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": author})
}

func (s *Server) ListAuthors(c *gin.Context) {
	authors, err := s.catalogSvc.ListAuthors(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": authors})
}

func (s *Server) CreatePublisher(c *gin.Context) {
	var req catalogdomain.CreatePublisherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	publisher, err := s.catalogSvc.CreatePublisher(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": publisher})
}

func (s *Server) GetPublisher(c *gin.Context) {
	publisher, err := s.catalogSvc.GetPublisher(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": publisher})
}

func (s *Server) ListPublishers(c *gin.Context) {
	publishers, err := s.catalogSvc.ListPublishers(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": publishers})
}

func (s *Server) CreateBook(c *gin.Context) {
	var req catalogdomain.CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	book, err := s.catalogSvc.CreateBook(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": book})
}

func (s *Server) GetBook(c *gin.Context) {
	book, err := s.catalogSvc.GetBook(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": book})
}

func (s *Server) ListBooks(c *gin.Context) {
	books, err := s.catalogSvc.ListBooks(c.Request.Context(), catalogdomain.ListBooksRequest{
		AuthorID:    strings.TrimSpace(c.Query("author_id")),
		PublisherID: strings.TrimSpace(c.Query("publisher_id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": books})
}
