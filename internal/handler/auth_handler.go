package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/wellnest/internal/db"
	"github.com/wellnest/internal/logging"
	"github.com/wellnest/internal/service"
)

const (
	sessionUserIDKey   = "user_id"
	sessionUsernameKey = "username"
	// userIDContextKey 与访问日志读取的键一致
	userIDContextKey = "user_id"
)

type credentialsPayload struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Signup 注册并直接登录
func (a *API) Signup(c *gin.Context) {
	var payload credentialsPayload
	if !bindJSON(c, &payload, "username and password are required") {
		return
	}

	user, err := a.users.Register(c.Request.Context(), payload.Username, payload.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserExists):
			respondError(c, http.StatusConflict, "username already taken")
		case errors.Is(err, service.ErrUserInvalid):
			respondError(c, http.StatusBadRequest, err.Error())
		default:
			logging.FromContext(c).WithError(err).Error("signup failed")
			respondError(c, http.StatusInternalServerError, "could not create account")
		}
		return
	}

	a.startSession(c, user, http.StatusCreated)
}

// Login 处理用户登录请求
func (a *API) Login(c *gin.Context) {
	var payload credentialsPayload
	if !bindJSON(c, &payload, "username and password are required") {
		return
	}

	user, err := a.users.Authenticate(c.Request.Context(), payload.Username, payload.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			respondError(c, http.StatusUnauthorized, "invalid username or password")
			return
		}
		logging.FromContext(c).WithError(err).Error("login failed")
		respondError(c, http.StatusInternalServerError, "could not log in")
		return
	}

	a.startSession(c, user, http.StatusOK)
}

// Logout 处理用户登出
func (a *API) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		logging.FromContext(c).WithError(err).Warn("clear session failed")
	}
	c.JSON(http.StatusOK, gin.H{"logged_out": true})
}

// Me 返回当前登录用户
func (a *API) Me(c *gin.Context) {
	userID, _ := currentUserID(c)
	user, err := a.users.Get(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			respondError(c, http.StatusUnauthorized, "authentication required")
			return
		}
		respondError(c, http.StatusInternalServerError, "could not load user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": userToPayload(*user)})
}

func (a *API) startSession(c *gin.Context, user *db.User, status int) {
	session := sessions.Default(c)
	session.Set(sessionUserIDKey, user.ID)
	session.Set(sessionUsernameKey, user.Username)
	if err := session.Save(); err != nil {
		logging.FromContext(c).WithError(err).Error("save session failed")
		respondError(c, http.StatusInternalServerError, "could not save session")
		return
	}

	token, expiresAt, err := a.tokens.Issue(user.ID, user.Username)
	if err != nil {
		logging.FromContext(c).WithError(err).Error("issue token failed")
		respondError(c, http.StatusInternalServerError, "could not issue token")
		return
	}

	c.Set(userIDContextKey, user.ID)
	c.JSON(status, gin.H{
		"user":       userToPayload(*user),
		"token":      token,
		"expires_at": expiresAt.UTC().Format(timestampFormat),
	})
}

// CurrentUser 解析请求身份：优先会话，其次 Bearer 令牌。解析失败不会中断请求。
func (a *API) CurrentUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID, ok := sessionUserID(sessions.Default(c)); ok {
			c.Set(userIDContextKey, userID)
			c.Next()
			return
		}

		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
			userID, err := a.tokens.Parse(header[7:])
			if err == nil {
				c.Set(userIDContextKey, userID)
			} else {
				logging.FromContext(c).WithError(err).Debug("bearer token rejected")
			}
		}
		c.Next()
	}
}

// AuthRequired 是 JSON API 的认证中间件
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := currentUserID(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}

func currentUserID(c *gin.Context) (uint, bool) {
	value, ok := c.Get(userIDContextKey)
	if !ok {
		return 0, false
	}
	userID, ok := value.(uint)
	return userID, ok && userID != 0
}

func sessionUserID(session sessions.Session) (uint, bool) {
	switch v := session.Get(sessionUserIDKey).(type) {
	case uint:
		return v, v != 0
	case int:
		return uint(v), v > 0
	case int64:
		return uint(v), v > 0
	case uint64:
		return uint(v), v != 0
	}
	return 0, false
}

func userToPayload(user db.User) gin.H {
	return gin.H{
		"id":         user.ID,
		"username":   user.Username,
		"created_at": user.CreatedAt.UTC().Format(timestampFormat),
	}
}
