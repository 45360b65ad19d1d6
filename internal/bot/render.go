package bot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"jadwalpoli/internal/calendar"
	"jadwalpoli/internal/model"
	"jadwalpoli/internal/queue"
	"jadwalpoli/internal/schedule"
)

const emptyScheduleText = "Jadwal belum tersedia"

func renderSchedule(ds *schedule.DoctorSchedule, stale bool, fetchedAt time.Time) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%s)\n", ds.Doctor.Name, ds.Doctor.Specialization)

	for _, clinic := range ds.Clinics {
		fmt.Fprintf(&sb, "\n🏥 %s\n", clinic.ClinicName)
		for _, occ := range clinic.Occurrences {
			line := "• " + occ.LongDate
			if occ.IsToday {
				line += " (Hari ini)"
			}
			line += " · " + occ.Hours
			if occ.Badge != "" {
				line += " [" + occ.Badge + "]"
			}
			sb.WriteString(line + "\n")

			var extra []string
			if q := occ.Entry.Quota; q != nil {
				extra = append(extra, "Kuota: "+strconv.Itoa(*q))
			}
			if fee := occ.Entry.ConsultationFee; fee != nil {
				extra = append(extra, "Biaya: "+formatRupiah(*fee))
			}
			if len(extra) > 0 {
				sb.WriteString("  " + strings.Join(extra, ", ") + "\n")
			}
		}
	}

	if stale {
		fmt.Fprintf(&sb, "\n⚠️ Data tersimpan per %s, SIMRS sedang tidak dapat dihubungi.", fetchedAt.Format("02/01/2006 15:04"))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// formatRupiah renders whole rupiah with dot thousands separators: Rp150.000.
func formatRupiah(amount float64) string {
	digits := strconv.FormatInt(int64(amount+0.5), 10)
	var out []byte
	for i := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			out = append(out, '.')
		}
		out = append(out, digits[i])
	}
	return "Rp" + string(out)
}

func renderQueue(v queue.View, loc *time.Location) string {
	switch {
	case v.Disabled:
		return "Pilih dokter, poli dan tanggal terlebih dahulu."
	case v.Loading:
		return "⏳ Memuat status antrian..."
	case v.Err != nil || v.Error != "":
		return "⚠️ Gagal memuat status antrian. Kirim /refresh untuk mencoba lagi."
	}

	var sb strings.Builder
	title := v.Key.Date
	if d, err := calendar.ParseDate(v.Key.Date, loc); err == nil {
		title = model.FormatLongDate(d)
	}
	fmt.Fprintf(&sb, "Antrian %s · %s\n%s\n\n", v.Key.DoctorCode, v.Key.ClinicCode, title)

	if v.NoQueue {
		sb.WriteString("Belum ada antrian untuk hari ini.")
	} else {
		st := v.Status
		fmt.Fprintf(&sb, "Nomor dilayani: %d dari %d\n", st.CurrentNumber, st.TotalQueue)
		fmt.Fprintf(&sb, "Menunggu: %d\n", v.Waiting)
		if v.Progress != nil {
			fmt.Fprintf(&sb, "Progres: %d%%", *v.Progress)
		}
		if v.IsFinished {
			sb.WriteString("\n✅ Pelayanan selesai")
		}
		if st.Message != "" {
			sb.WriteString("\n" + st.Message)
		}
	}

	if !v.FetchedAt.IsZero() {
		fmt.Fprintf(&sb, "\n\nDiperbarui %s", v.FetchedAt.In(loc).Format("15:04:05"))
	}
	return sb.String()
}
