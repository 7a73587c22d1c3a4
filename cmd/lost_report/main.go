package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"server-invest-app/config"
	"server-invest-app/internal/dao"
	"server-invest-app/internal/db"
	"server-invest-app/internal/pkg/util"
)

// lost_report writes the forfeited commissions per user to lost_commission_<ts>.txt.
func main() {
	flag.Parse()
	config.Init()
	util.SetLocation(config.Server.Timezone)
	db.Init()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	sums, err := dao.LostCommission.SumGroupByUser(ctx)
	if err != nil {
		log.Fatalf("sum lost commissions failed: %v", err)
	}

	path := fmt.Sprintf("lost_commission_%s.txt", time.Now().In(util.Loc).Format("20060102150405"))
	f, err := os.Create(path)
	if err != nil {
		log.Fatalf("create report file failed: %v", err)
	}
	defer f.Close()

	for _, s := range sums {
		// user_id, 次数, 金额
		_, err := f.WriteString(fmt.Sprintf("%d,%d,%s\n", s.UserID, s.Count, s.Amount.StringFixed(config.Referral.AmountScale())))
		if err != nil {
			log.Fatalf("write file failed: %v", err)
		}
	}
	log.Infof("report written to %s, users: %d", path, len(sums))
}
