package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ExtractUintParam кладет положительный числовой параметр пути в контекст под ключом contextKey.
// Нечисловое значение или 0 завершают запрос с 400.
func ExtractUintParam(paramName, contextKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param(paramName), 10, 32)
		if err != nil || id == 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid " + paramName})
			return
		}
		c.Set(contextKey, uint(id))
		c.Next()
	}
}
