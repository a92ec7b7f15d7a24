package middleware

import "github.com/labstack/echo/v4"

const (
	contextUserIDKey = "auth_user_id"
	contextEmailKey  = "auth_email"
)

func SetAuthContext(c echo.Context, userID uint, email string) {
	c.Set(contextUserIDKey, userID)
	c.Set(contextEmailKey, email)
}

func UserIDFromContext(c echo.Context) (uint, bool) {
	value := c.Get(contextUserIDKey)
	userID, ok := value.(uint)
	return userID, ok
}

func EmailFromContext(c echo.Context) (string, bool) {
	value := c.Get(contextEmailKey)
	email, ok := value.(string)
	return email, ok
}
