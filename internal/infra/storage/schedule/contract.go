package schedule

import (
	"github.com/m04kA/MedAppointmentService/pkg/dbmetrics"
)

// DBExecutor интерфейс для работы с БД
type DBExecutor = dbmetrics.DBExecutor
