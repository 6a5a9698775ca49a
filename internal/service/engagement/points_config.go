package engagement

import (
	"github.com/firewise/fireedu-api/internal/domain/entity"
)

// pointsTable — цена каждого типа события в очках вовлечённости.
// Значение фиксируется в записи журнала при создании, поэтому изменение
// таблицы не переоценивает старые записи.
var pointsTable = map[entity.EventType]int{
	entity.EventModule:   10,
	entity.EventQuiz:     15,
	entity.EventVideo:    5,
	entity.EventGame:     10,
	entity.EventPreTest:  20,
	entity.EventPostTest: 30,
	entity.EventLogin:    2,
	entity.EventChat:     1,
	entity.EventReading:  5,
}

// PointsFor возвращает цену события. ok=false для неизвестного типа.
func PointsFor(eventType entity.EventType) (points int, ok bool) {
	points, ok = pointsTable[eventType]
	return points, ok
}

// PointsTable возвращает копию таблицы цен (для отображения клиенту)
func PointsTable() map[entity.EventType]int {
	out := make(map[entity.EventType]int, len(pointsTable))
	for k, v := range pointsTable {
		out[k] = v
	}
	return out
}
