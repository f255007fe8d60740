package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/wellnest/internal/content"
	"github.com/wellnest/internal/db"
	"github.com/wellnest/internal/service"
	"gorm.io/gorm"
)

var (
	seedUsername string
	seedPassword string
	seedDays     int
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Generate demo check-ins, habits and reflections",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := openDatabase(); err != nil {
			return err
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		return seedDemoData(ctx, db.DB, cmd.OutOrStdout(), seedUsername, seedPassword, seedDays, time.Now())
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedUsername, "username", "demo", "Demo account username")
	seedCmd.Flags().StringVar(&seedPassword, "password", "demo12345", "Demo account password")
	seedCmd.Flags().IntVar(&seedDays, "days", 14, "Number of days of check-ins to generate")
}

type demoHabit struct {
	name     string
	category string
	icon     string
	// every 表示每隔几天打卡一次
	every int
}

var demoHabits = []demoHabit{
	{name: "Morning meditation", category: "Mindfulness", icon: "🧘", every: 1},
	{name: "Evening walk", category: "Fitness", icon: "🚶", every: 2},
	{name: "Read 20 pages", category: "Learning", icon: "📚", every: 3},
}

var demoNotes = []string{
	"Had a good workout",
	"Felt anxious today",
	"Great day with friends",
	"Stressful work day",
}

// seedDemoData 为演示账号生成数据；账号已有打卡时跳过
func seedDemoData(ctx context.Context, gdb *gorm.DB, out io.Writer, username, password string, days int, now time.Time) error {
	if days <= 0 {
		days = 14
	}

	user, err := ensureDemoUser(ctx, gdb, username, password)
	if err != nil {
		return err
	}

	var existing int64
	if err := gdb.WithContext(ctx).Model(&db.CheckIn{}).Where("user_id = ?", user.ID).Count(&existing).Error; err != nil {
		return fmt.Errorf("count check-ins: %w", err)
	}
	if existing > 0 {
		fmt.Fprintf(out, "用户 %s 已有 %d 条打卡，跳过生成\n", user.Username, existing)
		return nil
	}

	fmt.Fprintln(out, "开始生成测试数据...")

	err = gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := createDemoCheckIns(tx, user.ID, days, now); err != nil {
			return err
		}
		if err := createDemoHabits(tx, user.ID, days, now); err != nil {
			return err
		}
		return createDemoReflection(tx, user.ID, now)
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "测试数据生成完成！")
	fmt.Fprintf(out, "用户: %s (密码: %s)\n", username, password)
	fmt.Fprintf(out, "打卡: %d 条，习惯: %d 个\n", days, len(demoHabits))
	return nil
}

func ensureDemoUser(ctx context.Context, gdb *gorm.DB, username, password string) (*db.User, error) {
	users := service.NewUserService(gdb)
	user, err := users.Register(ctx, username, password)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, service.ErrUserExists) {
		return nil, err
	}

	var existing db.User
	if err := gdb.WithContext(ctx).Where("username = ?", username).First(&existing).Error; err != nil {
		return nil, fmt.Errorf("load demo user: %w", err)
	}
	return &existing, nil
}

// createDemoCheckIns 每天一条，数值按固定节奏起伏，睡眠越多心情越好
func createDemoCheckIns(tx *gorm.DB, userID uint, days int, now time.Time) error {
	for i := 0; i < days; i++ {
		sleep := 5.5 + float64((i*3)%7)*0.5
		mood := 3 + int(sleep-5)
		if mood > 10 {
			mood = 10
		}
		record := db.CheckIn{
			UserID:      userID,
			CreatedAt:   now.AddDate(0, 0, -i).Add(-2 * time.Hour),
			MoodScore:   mood,
			EnergyLevel: 1 + (i*2)%5,
			SleepHours:  sleep,
		}
		if i%3 == 0 {
			note := demoNotes[(i/3)%len(demoNotes)]
			record.Notes = &note
		}
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("create demo check-in: %w", err)
		}
	}
	return nil
}

func createDemoHabits(tx *gorm.DB, userID uint, days int, now time.Time) error {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	for _, spec := range demoHabits {
		habit := db.Habit{
			UserID:    userID,
			Name:      spec.name,
			Category:  spec.category,
			Icon:      spec.icon,
			Frequency: "daily",
		}
		if err := tx.Create(&habit).Error; err != nil {
			return fmt.Errorf("create demo habit: %w", err)
		}
		for i := 0; i < days; i += spec.every {
			log := db.HabitLog{HabitID: habit.ID, LogDate: today.AddDate(0, 0, -i)}
			if err := tx.Create(&log).Error; err != nil {
				return fmt.Errorf("create demo habit log: %w", err)
			}
		}
	}
	return nil
}

func createDemoReflection(tx *gorm.DB, userID uint, now time.Time) error {
	catalog, err := content.Default()
	if err != nil {
		return err
	}
	if len(catalog.ReflectionPrompts) == 0 {
		return nil
	}

	reflection := db.Reflection{
		UserID:    userID,
		PromptID:  catalog.ReflectionPrompts[0].ID,
		EntryDate: time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()),
		Response:  "Walked every other evening and slept **much** better by the weekend.",
	}
	if err := tx.Create(&reflection).Error; err != nil {
		return fmt.Errorf("create demo reflection: %w", err)
	}
	return nil
}
