package gateway

import (
	"bytes"
	"net/http"

	"github.com/example/shopfront/pkg/repository"
	"github.com/gin-gonic/gin"
	"github.com/tealeg/xlsx"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var orderExportHeaders = []string{
	"ID", "User ID", "Email", "Name", "Status", "Items", "Total", "Shipping Address", "Created At", "Updated At",
}

func ordersWorkbook(rows []repository.OrderRow) (*xlsx.File, error) {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Orders")
	if err != nil {
		return nil, err
	}

	header := sheet.AddRow()
	for _, h := range orderExportHeaders {
		header.AddCell().SetValue(h)
	}

	for _, o := range rows {
		row := sheet.AddRow()
		row.AddCell().SetValue(o.ID)
		row.AddCell().SetValue(o.UserID)
		row.AddCell().SetValue(o.UserEmail)
		row.AddCell().SetValue(o.UserName)
		row.AddCell().SetValue(string(o.Status))
		row.AddCell().SetValue(o.ItemCount)
		row.AddCell().SetValue(money(o.TotalAmount))
		row.AddCell().SetValue(o.ShippingAddress)
		row.AddCell().SetValue(formatTime(o.CreatedAt))
		row.AddCell().SetValue(formatTime(o.UpdatedAt))
	}
	return file, nil
}

func (g *Gateway) exportOrders(c *gin.Context) {
	if !g.requireAdmin(c) {
		return
	}
	q := orderQuery(c)
	q.UserID = uint(max(queryInt(c, "user_id"), 0))

	rows, err := g.svc.Orders.Export(c.Request.Context(), currentPrincipal(c), q)
	if err != nil {
		g.writeError(c, err)
		return
	}

	file, err := ordersWorkbook(rows)
	if err != nil {
		g.writeError(c, err)
		return
	}
	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		g.writeError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=orders.xlsx")
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
