package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"campus-venue/internal/model"
	"campus-venue/internal/repository"
	pkgerrors "campus-venue/pkg/errors"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoItems      = pkgerrors.New(pkgerrors.ErrNotFound, "暂无已批准的预约")
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

// ExportService 导出业务接口
//
// 两种导出均只包含 approved 预约（含已归档），按开始时间升序：
//   - Excel (.xlsx)：单 Sheet 列表，供管理员打印排期
//   - iCalendar (.ics)：每条预约一个 VEVENT，可被日历客户端订阅
type ExportService interface {
	ExportSchedule(ctx context.Context) (*bytes.Buffer, string, error)
	ExportICS(ctx context.Context) ([]byte, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger, now: time.Now}
}

// ═══════════════════════════════════════════════════════════
// ExportSchedule — 导出已批准日程为 Excel
// ═══════════════════════════════════════════════════════════
//
// 表头: | 场地 | 活动 | 日期 | 开始 | 结束 | 部门 | 负责人 | 联系电话 | 人数 |

func (s *exportService) ExportSchedule(ctx context.Context) (*bytes.Buffer, string, error) {
	list, err := s.approvedSchedule(ctx)
	if err != nil {
		return nil, "", err
	}
	if len(list) == 0 {
		return nil, "", ErrExportNoItems
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Schedule"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headers := []string{"Venue", "Activity", "Date", "Start", "End", "Department", "Person in charge", "Contact", "Attendees"}
	widths := []float64{30, 36, 12, 8, 8, 30, 24, 16, 10}
	for i, w := range widths {
		col := colName(i)
		f.SetColWidth(sheetName, col, col, w)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("Approved venue schedule (%s)", s.now().Format("2006-01-02")))
	f.MergeCell(sheetName, "A1", cell(colName(len(headers)-1), 1))
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	row := 2
	for i, h := range headers {
		f.SetCellValue(sheetName, cell(colName(i), row), h)
	}
	f.SetCellStyle(sheetName, cell("A", row), cell(colName(len(headers)-1), row), headerStyle)

	// 数据行
	row = 3
	for _, r := range list {
		values := []interface{}{
			roomLabel(&r),
			r.ActivityPurpose,
			r.StartTime.Format("2006-01-02"),
			r.StartTime.Format("15:04"),
			r.EndTime.Format("15:04"),
			ownerDepartment(&r),
			r.PersonInCharge,
			r.ContactNumber,
			r.Attendees,
		}
		for i, v := range values {
			f.SetCellValue(sheetName, cell(colName(i), row), v)
		}
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("venue-schedule-%s.xlsx", s.now().Format("20060102"))
	return buf, filename, nil
}

// ExportICS 导出已批准日程为 iCalendar，无预约时返回空日历
func (s *exportService) ExportICS(ctx context.Context) ([]byte, string, error) {
	list, err := s.approvedSchedule(ctx)
	if err != nil {
		return nil, "", err
	}

	stamp := s.now()
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//campus-venue//approved schedule//EN")

	for _, r := range list {
		event := cal.AddEvent(fmt.Sprintf("reservation-%d@campus-venue", r.ID))
		event.SetDtStampTime(stamp)
		event.SetCreatedTime(r.DateFiled)
		event.SetStartAt(r.StartTime)
		event.SetEndAt(r.EndTime)
		event.SetSummary(r.ActivityPurpose)
		event.SetLocation(roomLabel(&r))
		if dept := ownerDepartment(&r); dept != "" {
			event.SetDescription(fmt.Sprintf("%s / %s %s", dept, r.PersonInCharge, r.ContactNumber))
		}
	}

	filename := fmt.Sprintf("venue-schedule-%s.ics", stamp.Format("20060102"))
	return []byte(cal.Serialize()), filename, nil
}

func (s *exportService) approvedSchedule(ctx context.Context) ([]model.Reservation, error) {
	list, err := s.repo.Reservation.ListByStatus(ctx, model.StatusApproved)
	if err != nil {
		s.logger.Error("查询已批准预约失败", zap.Error(err))
		return nil, err
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].StartTime.Before(list[j].StartTime)
	})
	return list, nil
}

// ── 辅助函数 ──

func roomLabel(r *model.Reservation) string {
	if r.Room != nil {
		return r.Room.Name
	}
	return fmt.Sprintf("Room #%d", r.RoomID)
}

func ownerDepartment(r *model.Reservation) string {
	if r.Owner != nil {
		return r.Owner.Department
	}
	return r.Division
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
