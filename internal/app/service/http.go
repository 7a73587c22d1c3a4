package service

import (
	"fmt"
	"net/http"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"server-invest-app/config"
	"server-invest-app/internal/app/invest"
	"server-invest-app/internal/pkg/middleware"
)

var srv *http.Server

// NewRouter registers every route of the service.
func NewRouter(s *invest.Service, adminToken string) *gin.Engine {
	r := gin.Default()
	pprof.Register(r)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	admin := middleware.AdminToken(adminToken)
	r.GET("/earnings", admin, invest.ListEarnings)
	r.GET("/lost_commissions", admin, invest.ListLostCommissions)

	adminGroup := r.Group("/admin")
	adminGroup.Use(admin)
	adminGroup.POST("/package/:id/activate", s.ActivatePackage)
	adminGroup.GET("/commission/levels", s.GetCommissionLevels)
	adminGroup.PUT("/commission/levels", s.PutCommissionLevels)
	adminGroup.POST("/user", s.CreateUser)
	adminGroup.GET("/user/:id/downline", s.GetDownline)

	outGroup := r.Group("/out")
	outGroup.Use(middleware.ValidateSign)
	outGroup.POST("/package/confirm", s.ConfirmPayment)

	return r
}

func RunHttp(s *invest.Service) {
	srv = &http.Server{
		Addr:    fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port),
		Handler: NewRouter(s, config.Server.AdminToken),
	}

	log.Infof("Start to listen %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("listen: %s\n", err)
	}
}

func GetHttp() *http.Server {
	return srv
}
