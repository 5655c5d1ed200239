package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// GetAnalytics 返回运营面板所需的全站浏览统计。
// 任一聚合失败即整体失败，不返回部分结果。
func (a *API) GetAnalytics(c *gin.Context) {
	overview, err := a.analytics.Overview(time.Now())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取统计数据失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"totals": gin.H{
			"totalViews":          overview.TotalViews,
			"totalUniqueVisitors": overview.TotalUniqueVisitors,
			"postCount":           overview.PostCount,
		},
		"deviceBreakdown":       overview.DeviceBreakdown,
		"dailyTrend":            overview.DailyTrend,
		"engagementRatePercent": overview.EngagementRatePercent,
	})
}
