package handler

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the subject and report endpoints. reports may be nil
// when exports are disabled.
func RegisterRoutes(r gin.IRouter, subjects *SubjectHandler, reports *ReportHandler) {
	r.GET("/subjects", subjects.List)
	r.POST("/subjects", subjects.Create)
	r.GET("/subjects/:index", subjects.Get)
	r.PUT("/subjects/:index", subjects.Update)
	r.DELETE("/subjects/:index", subjects.Delete)
	r.POST("/subjects/:index/attend", subjects.Attend)
	r.POST("/subjects/:index/miss", subjects.Miss)
	r.GET("/subject-ids/:id", subjects.GetByID)

	if reports != nil {
		r.POST("/reports/attendance", reports.Create)
		r.GET("/reports/download/:token", reports.Download)
	}
}
