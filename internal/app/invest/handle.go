package invest

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"server-invest-app/internal/app/referral"
	"server-invest-app/internal/dao"
	"server-invest-app/internal/model"
	"server-invest-app/internal/pkg/generr"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, struct {
		Code int         `json:"code"`
		Msg  string      `json:"msg"`
		Data interface{} `json:"data"`
	}{200, "success", data})
}

func abortDistribution(c *gin.Context, err error) {
	switch {
	case errors.Cause(err) == referral.ErrPackageNotFound:
		c.JSON(http.StatusNotFound, generr.PackageNotFound)
	case referral.IsValidation(err):
		log.Warnf("err: %v", err)
		c.JSON(http.StatusBadRequest, generr.ValidationFailure.WithMsg(err.Error()))
	default:
		log.Errorf("err: %+v", err)
		c.JSON(http.StatusInternalServerError, generr.StorageFailure)
	}
}

// ActivatePackage is the manual admin approval of a pending package.
func (s *Service) ActivatePackage(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, generr.ParseParam)
		return
	}

	res, err := s.Activator.Activate(c.Request.Context(), id)
	if err != nil {
		abortDistribution(c, err)
		return
	}
	success(c, res)
}

// ConfirmPayment is called by the payment provider once a package is paid.
func (s *Service) ConfirmPayment(c *gin.Context) {
	req := struct {
		AppID     string `form:"app_id" binding:"required"`     // 应用ID
		PackageID int64  `form:"package_id" binding:"required"` // 投资包ID
	}{}

	err := c.ShouldBindWith(&req, binding.Form)
	if err != nil {
		log.Errorf("err: %+v", errors.Wrap(err, "should bind"))
		c.JSON(http.StatusBadRequest, generr.ParseParam)
		return
	}

	log.Infof("payment confirmed: %+v", req)

	res, err := s.Activator.Activate(c.Request.Context(), req.PackageID)
	if err != nil {
		abortDistribution(c, err)
		return
	}
	success(c, res)
}

func (s *Service) GetCommissionLevels(c *gin.Context) {
	table, err := s.Rates.Table(c.Request.Context())
	if err != nil {
		log.Errorf("err: %+v", errors.Wrap(err, "get commission table"))
		c.JSON(http.StatusInternalServerError, generr.ReadDB)
		return
	}
	success(c, table.Levels())
}

func (s *Service) PutCommissionLevels(c *gin.Context) {
	req := struct {
		Levels []struct {
			Level      int             `json:"level" binding:"required"`
			Percentage decimal.Decimal `json:"percentage"`
		} `json:"levels" binding:"required"`
	}{}

	err := c.ShouldBindJSON(&req)
	if err != nil {
		log.Errorf("err: %+v", errors.Wrap(err, "should bind"))
		c.JSON(http.StatusBadRequest, generr.ParseParam)
		return
	}

	levels := make([]model.CommissionLevel, 0, len(req.Levels))
	for _, l := range req.Levels {
		levels = append(levels, model.CommissionLevel{Level: l.Level, Percentage: l.Percentage})
	}
	if _, err := s.Base.Override(levels); err != nil {
		c.JSON(http.StatusBadRequest, generr.ValidationFailure.WithMsg(err.Error()))
		return
	}

	err = s.Levels.Save(c.Request.Context(), levels)
	if err != nil {
		log.Errorf("err: %+v", errors.Wrap(err, "save commission levels"))
		c.JSON(http.StatusInternalServerError, generr.UpdateDB)
		return
	}
	s.GetCommissionLevels(c)
}

type pageReq struct {
	UserID   int64 `form:"user_id" binding:"required"`
	LastID   int64 `form:"last_id"`
	PageSize int   `form:"page_size"`
}

func (r *pageReq) normalize() {
	if r.PageSize <= 0 {
		r.PageSize = defaultPageSize
	}
	if r.PageSize > maxPageSize {
		r.PageSize = maxPageSize
	}
}

func ListEarnings(c *gin.Context) {
	var req pageReq
	err := c.ShouldBind(&req)
	if err != nil {
		log.Errorf("err: %+v", errors.Wrap(err, "should bind"))
		c.JSON(http.StatusBadRequest, generr.ParseParam)
		return
	}
	req.normalize()

	earnings, err := dao.Earning.ListByUser(c.Request.Context(), req.UserID, req.LastID, req.PageSize)
	if err != nil {
		log.Errorf("err: %+v", errors.Wrap(err, "list earnings"))
		c.JSON(http.StatusInternalServerError, generr.ReadDB)
		return
	}

	m := make(map[string]interface{})
	m["list"] = earnings
	if len(earnings) > 0 {
		m["last_id"] = earnings[len(earnings)-1].ID
	}
	success(c, m)
}

func ListLostCommissions(c *gin.Context) {
	var req pageReq
	err := c.ShouldBind(&req)
	if err != nil {
		log.Errorf("err: %+v", errors.Wrap(err, "should bind"))
		c.JSON(http.StatusBadRequest, generr.ParseParam)
		return
	}
	req.normalize()

	losts, err := dao.LostCommission.ListByUser(c.Request.Context(), req.UserID, req.LastID, req.PageSize)
	if err != nil {
		log.Errorf("err: %+v", errors.Wrap(err, "list lost commissions"))
		c.JSON(http.StatusInternalServerError, generr.ReadDB)
		return
	}

	m := make(map[string]interface{})
	m["list"] = losts
	if len(losts) > 0 {
		m["last_id"] = losts[len(losts)-1].ID
	}
	success(c, m)
}

// CreateUser imports a user, allocating the next referral code.
func (s *Service) CreateUser(c *gin.Context) {
	req := struct {
		ReferredBy string `json:"referred_by" form:"referred_by"` // 推荐人推荐码
	}{}

	err := c.ShouldBind(&req)
	if err != nil {
		log.Errorf("err: %+v", errors.Wrap(err, "should bind"))
		c.JSON(http.StatusBadRequest, generr.ParseParam)
		return
	}

	u, err := s.Users.Create(c.Request.Context(), req.ReferredBy)
	if err != nil {
		switch {
		case referral.IsValidation(err):
			c.JSON(http.StatusBadRequest, generr.ValidationFailure.WithMsg(err.Error()))
		case errors.Cause(err) == ErrReferralCodeTaken:
			c.JSON(http.StatusConflict, generr.ReferralCodeTaken)
		default:
			log.Errorf("err: %+v", errors.Wrap(err, "create user"))
			c.JSON(http.StatusInternalServerError, generr.UpdateDB)
		}
		return
	}
	success(c, u)
}

func (s *Service) GetDownline(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, generr.ParseParam)
		return
	}

	members, err := Downline(c.Request.Context(), s.Team, id)
	if err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, generr.UserNotFound)
			return
		}
		log.Errorf("err: %+v", errors.WithMessage(err, "get downline"))
		c.JSON(http.StatusInternalServerError, generr.ReadDB)
		return
	}
	success(c, members)
}
